package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "boom"}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify("ec2", "DeleteSecurityGroup", "sg-1", nil))
}

func TestClassify_RecoverableCodes(t *testing.T) {
	for _, code := range []string{
		"DependencyViolation",
		"InvalidGroup.NotFound",
		"InvalidVolume.NotFound",
		"IncorrectState",
		"Throttling",
		"AccessDenied",
		"NoSuchBucket",
	} {
		err := Classify("ec2", "Op", "r-1", fmt.Errorf("wrapped: %w", apiErr(code)))

		var de *DependencyError
		require.ErrorAs(t, err, &de, code)
		assert.Equal(t, code, de.Code)
		assert.True(t, de.Recoverable, code)
		assert.True(t, IsRecoverable(err), code)
	}
}

func TestClassify_FatalCodes(t *testing.T) {
	for _, code := range []string{"ExpiredToken", "UnrecognizedClientException", "InvalidClientTokenId", "AuthFailure"} {
		err := Classify("sts", "GetCallerIdentity", "", apiErr(code))
		assert.False(t, IsRecoverable(err), code)
	}
}

func TestClassify_ContextCancellationIsFatal(t *testing.T) {
	err := Classify("s3", "ListObjectsV2", "bucket", fmt.Errorf("op: %w", context.Canceled))
	assert.False(t, IsRecoverable(err))
	assert.ErrorIs(t, err, context.Canceled)

	err = Classify("s3", "ListObjectsV2", "bucket", context.DeadlineExceeded)
	assert.False(t, IsRecoverable(err))
}

func TestClassify_PassesThroughExisting(t *testing.T) {
	first := Classify("ec2", "DescribeVolumes", "", apiErr("Throttling"))
	again := Classify("cost", "collect", "", fmt.Errorf("outer: %w", first))

	var de *DependencyError
	require.ErrorAs(t, again, &de)
	assert.Equal(t, "ec2", de.Service)
}

func TestDependencyError_Message(t *testing.T) {
	err := Classify("ec2", "DeleteSnapshot", "snap-1", apiErr("InvalidSnapshot.InUse"))
	assert.Contains(t, err.Error(), "ec2 DeleteSnapshot snap-1 (InvalidSnapshot.InUse)")
}

func TestIsRecoverable_UnclassifiedIsFatal(t *testing.T) {
	assert.False(t, IsRecoverable(errors.New("plain")))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "NoSuchLifecycleConfiguration", ErrorCode(fmt.Errorf("x: %w", apiErr("NoSuchLifecycleConfiguration"))))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}
