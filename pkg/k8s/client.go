// Package k8s spawns preprocessing workers as Kubernetes Jobs. Each Job runs
// one queued preprocessing job to completion and is garbage-collected by the
// cluster afterwards.
package k8s

import (
	"context"
	"fmt"
	"path/filepath"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/tableprep/tableprep-go/pkg/models"
)

const (
	// workerLabel selects the worker Jobs this client manages.
	workerLabel = "tableprep-worker"

	// dataClaimName is the PersistentVolumeClaim shared by the API server
	// and the worker fleet; it holds uploads, outputs and the metadata
	// database. Workers cannot use an ephemeral volume because they read
	// files the API server stored.
	dataClaimName = "tableprep-data"

	workerServiceAccount = "worker-service-account"
	jobTTLSeconds        = int32(300)
)

var (
	workerCPURequest    = resource.MustParse("500m")
	workerMemoryRequest = resource.MustParse("1Gi")
	workerCPULimit      = resource.MustParse("2000m")
	workerMemoryLimit   = resource.MustParse("4Gi")
)

// Client talks to the cluster's batch API.
type Client struct {
	api       kubernetes.Interface
	namespace string
	ctx       context.Context
}

// NewClient builds a client from the in-cluster service account, falling
// back to the local kubeconfig when running outside the cluster.
func NewClient(namespace string) (*Client, error) {
	cfg, err := loadRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes config: %w", err)
	}
	api, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	if namespace == "" {
		namespace = "default"
	}
	return &Client{api: api, namespace: namespace, ctx: context.Background()}, nil
}

func loadRESTConfig() (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// WorkerJobName returns the Kubernetes Job name for a preprocessing job.
func WorkerJobName(jobID string) string {
	return "tableprep-worker-" + jobID
}

// CreateWorkerJob submits a Job that runs the given preprocessing job to
// completion. The worker loads the job record from the shared metadata
// database, so the pod only needs the job ID and the Redis address.
func (c *Client) CreateWorkerJob(job *models.Job, workerImage, redisAddr string) error {
	manifest := workerJobManifest(job, c.namespace, workerImage, redisAddr)
	if _, err := c.api.BatchV1().Jobs(c.namespace).Create(c.ctx, manifest, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create kubernetes job: %w", err)
	}
	return nil
}

// GetActiveWorkerCount counts worker Jobs with at least one running pod.
func (c *Client) GetActiveWorkerCount() (int, error) {
	jobs, err := c.api.BatchV1().Jobs(c.namespace).List(c.ctx, metav1.ListOptions{
		LabelSelector: "app=" + workerLabel,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	active := 0
	for _, j := range jobs.Items {
		if j.Status.Active > 0 {
			active++
		}
	}
	return active, nil
}

func workerJobManifest(job *models.Job, namespace, image, redisAddr string) *batchv1.Job {
	labels := map[string]string{
		"app":    workerLabel,
		"job-id": job.ID,
	}
	ttl := jobTTLSeconds

	container := corev1.Container{
		Name:            "worker",
		Image:           image,
		ImagePullPolicy: corev1.PullAlways,
		Env: []corev1.EnvVar{
			{Name: "JOB_ID", Value: job.ID},
			{Name: "REDIS_URL", Value: redisAddr},
			{Name: "DATABASE_PATH", Value: "/app/data/tableprep.db"},
			{Name: "DATA_DIR", Value: "/app/data"},
			{Name: "UPLOAD_DIR", Value: "/app/data/uploads"},
		},
		Resources: corev1.ResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceCPU:    workerCPURequest,
				corev1.ResourceMemory: workerMemoryRequest,
			},
			Limits: corev1.ResourceList{
				corev1.ResourceCPU:    workerCPULimit,
				corev1.ResourceMemory: workerMemoryLimit,
			},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: "data", MountPath: "/app/data"},
		},
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      WorkerJobName(job.ID),
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			TTLSecondsAfterFinished: &ttl,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					ServiceAccountName: workerServiceAccount,
					Containers:         []corev1.Container{container},
					Volumes: []corev1.Volume{
						{
							Name: "data",
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: dataClaimName,
								},
							},
						},
					},
					RestartPolicy: corev1.RestartPolicyNever,
				},
			},
		},
	}
}
