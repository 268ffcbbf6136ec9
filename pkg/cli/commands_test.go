/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	"github.com/wisecow/wisecow/pkg/health"
	"github.com/wisecow/wisecow/pkg/k8s"
)

// exitCode extracts the carried exit code from a command error, 0 for nil.
func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var xe *exitError
	require.True(t, errors.As(err, &xe), "expected exit-coded error, got %v", err)
	return xe.code
}

func TestCheckCommandHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	outFile := filepath.Join(t.TempDir(), "report.json")
	err := Run(t.Context(), []string{
		"wisecow", "check",
		"--url", srv.URL,
		"--format", "json",
		"--output", outFile,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var report health.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.True(t, report.Healthy > 0)
}

func TestCheckCommandDownExitsOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Run(t.Context(), []string{
		"wisecow", "check",
		"--url", srv.URL,
		"--retries", "1",
		"--output", filepath.Join(t.TempDir(), "report.yaml"),
	})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestCheckCommandRejectsConflictingFlags(t *testing.T) {
	err := Run(t.Context(), []string{
		"wisecow", "check",
		"--url", "http://localhost:1",
		"--config", "endpoints.yaml",
	})
	assert.Error(t, err)
}

func TestCheckCommandRequiresEndpoints(t *testing.T) {
	err := Run(t.Context(), []string{"wisecow", "check"})
	assert.Error(t, err)
}

const fakeProcStat = `cpu  100 0 100 700 100 0 0 0 0 0
cpu0 100 0 100 700 100 0 0 0 0 0
intr 0
ctxt 0
btime 1700000000
processes 1
procs_running 1
procs_blocked 0
`

func writeFakeProc(t *testing.T, meminfo string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(fakeProcStat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meminfo"), []byte(meminfo), 0o644))
	return dir
}

func TestMonitorCommand(t *testing.T) {
	procDir := writeFakeProc(t, "MemTotal:       16000000 kB\nMemAvailable:    8000000 kB\n")

	outFile := filepath.Join(t.TempDir(), "report.json")
	err := Run(t.Context(), []string{
		"wisecow", "monitor",
		"--proc-mount", procDir,
		"--disk-path", t.TempDir(),
		"--sample-interval", "10ms",
		"--format", "json",
		"--output", outFile,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "healthy", report["status"])
}

func TestMonitorCommandThresholdExceeded(t *testing.T) {
	// 75% used, over a 50% threshold.
	procDir := writeFakeProc(t, "MemTotal:       16000000 kB\nMemAvailable:    4000000 kB\n")

	err := Run(t.Context(), []string{
		"wisecow", "monitor",
		"--proc-mount", procDir,
		"--disk-path", t.TempDir(),
		"--sample-interval", "10ms",
		"--mem-threshold", "50",
		"--output", filepath.Join(t.TempDir(), "report.yaml"),
	})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestServeCommandBindFailureExitCode(t *testing.T) {
	// Occupy a port so serve cannot bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port

	err = Run(t.Context(), []string{
		"wisecow", "serve",
		"--address", "127.0.0.1",
		"--port", strconv.Itoa(port),
		"--admin-port", "0",
	})
	assert.Equal(t, 2, exitCode(t, err))
}

func testStatusDeployment(ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "wisecow", Namespace: "default"},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(2)),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "wisecow", Image: "ghcr.io/example/wisecow:1.2"}},
				},
			},
		},
		Status: appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func withFakeKubeClient(t *testing.T, client k8s.Interface) {
	t.Helper()
	orig := newKubeClient
	newKubeClient = func(string) (k8s.Interface, error) { return client, nil }
	t.Cleanup(func() { newKubeClient = orig })
}

func TestStatusCommandReady(t *testing.T) {
	withFakeKubeClient(t, fake.NewSimpleClientset(testStatusDeployment(2)))

	err := Run(t.Context(), []string{
		"wisecow", "status",
		"--deployment", "wisecow",
		"--output", filepath.Join(t.TempDir(), "status.yaml"),
	})
	assert.NoError(t, err)
}

func TestStatusCommandNotReadyExitsOne(t *testing.T) {
	withFakeKubeClient(t, fake.NewSimpleClientset(testStatusDeployment(0)))

	err := Run(t.Context(), []string{
		"wisecow", "status",
		"--deployment", "wisecow",
		"--output", filepath.Join(t.TempDir(), "status.yaml"),
	})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestStatusCommandImageMismatch(t *testing.T) {
	withFakeKubeClient(t, fake.NewSimpleClientset(testStatusDeployment(2)))

	err := Run(t.Context(), []string{
		"wisecow", "status",
		"--deployment", "wisecow",
		"--image", "ghcr.io/example/wisecow:9.9",
		"--output", filepath.Join(t.TempDir(), "status.yaml"),
	})
	assert.Equal(t, 1, exitCode(t, err))
}
