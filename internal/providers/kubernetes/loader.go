package kubernetes

import (
	"fmt"
	"os"
	"path/filepath"

	k8sclient "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// resolveKubeconfigPath returns the effective kubeconfig file path.
// Prefers $KUBECONFIG if set; falls back to ~/.kube/config.
func resolveKubeconfigPath() string {
	if path := os.Getenv("KUBECONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// ResolveContext reads the kubeconfig at path and returns the context that
// contextName selects (the current context when empty) with its API server.
// It fails when the context does not exist. No connection is attempted.
func ResolveContext(kubeconfigPath, contextName string) (ClusterInfo, error) {
	info, _, err := resolve(kubeconfigPath, contextName)
	return info, err
}

// LoadClientset builds a kubernetes clientset from the kubeconfig file at
// path for contextName (empty means the current context).
func LoadClientset(kubeconfigPath, contextName string) (k8sclient.Interface, ClusterInfo, error) {
	info, cfg, err := resolve(kubeconfigPath, contextName)
	if err != nil {
		return nil, ClusterInfo{}, err
	}
	effectiveContext := info.ContextName

	restCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("build REST config for context %q: %w", effectiveContext, err)
	}

	clientset, err := k8sclient.NewForConfig(restCfg)
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("build clientset for context %q: %w", effectiveContext, err)
	}

	return clientset, info, nil
}

func resolve(kubeconfigPath, contextName string) (ClusterInfo, clientcmd.ClientConfig, error) {
	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	cfg := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	rawCfg, err := cfg.RawConfig()
	if err != nil {
		return ClusterInfo{}, nil, fmt.Errorf("load kubeconfig %q: %w", kubeconfigPath, err)
	}

	effectiveContext := rawCfg.CurrentContext
	if contextName != "" {
		effectiveContext = contextName
	}
	kctx, ok := rawCfg.Contexts[effectiveContext]
	if !ok {
		return ClusterInfo{}, nil, fmt.Errorf("kubeconfig %q: context %q not found", kubeconfigPath, effectiveContext)
	}

	info := ClusterInfo{ContextName: effectiveContext}
	if cluster, ok := rawCfg.Clusters[kctx.Cluster]; ok {
		info.Server = cluster.Server
	}
	return info, cfg, nil
}
