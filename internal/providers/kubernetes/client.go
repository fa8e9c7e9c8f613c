package kubernetes

import k8sclient "k8s.io/client-go/kubernetes"

// KubeClientProvider creates kubernetes clientsets for named kubeconfig
// contexts. Tests inject a provider returning a fake clientset.
type KubeClientProvider interface {
	// ClientsetForContext returns a clientset and the resolved ClusterInfo
	// for contextName. An empty name selects the kubeconfig's current
	// context.
	ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error)
}

// DefaultKubeClientProvider builds real clientsets from a kubeconfig file.
type DefaultKubeClientProvider struct {
	kubeconfigPath string
}

// NewDefaultKubeClientProvider returns a provider reading kubeconfigPath.
// An empty path means $KUBECONFIG, then ~/.kube/config.
func NewDefaultKubeClientProvider(kubeconfigPath string) *DefaultKubeClientProvider {
	if kubeconfigPath == "" {
		kubeconfigPath = resolveKubeconfigPath()
	}
	return &DefaultKubeClientProvider{kubeconfigPath: kubeconfigPath}
}

// KubeconfigPath returns the file the provider loads.
func (p *DefaultKubeClientProvider) KubeconfigPath() string { return p.kubeconfigPath }

// ClientsetForContext implements KubeClientProvider.
func (p *DefaultKubeClientProvider) ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error) {
	return LoadClientset(p.kubeconfigPath, contextName)
}
