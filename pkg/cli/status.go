/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/wisecow/wisecow/pkg/defaults"
	"github.com/wisecow/wisecow/pkg/k8s"
)

// newKubeClient is swapped for a fake clientset in tests.
var newKubeClient = func(kubeconfig string) (k8s.Interface, error) {
	return k8s.BuildClient(kubeconfig)
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Report rollout status of the wisecow Deployment",
		Description: `Reports whether a Deployment has all desired replicas ready, optionally
waiting for the rollout to complete and verifying the running container
image against an expected reference.

Exits 0 when the Deployment is ready (and the image matches, if checked)
and 1 otherwise.

# Examples

One-shot readiness check:
  wisecow status --deployment wisecow

Block until rollout completes:
  wisecow status --deployment wisecow --wait --timeout 5m

Verify the rolled-out image:
  wisecow status --deployment wisecow --image ghcr.io/example/wisecow:1.2`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "deployment",
				Aliases:  []string{"d"},
				Required: true,
				Usage:    "Deployment name to inspect",
			},
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Value:   "default",
				Sources: cli.EnvVars("WISECOW_NAMESPACE"),
				Usage:   "Kubernetes namespace of the Deployment",
			},
			&cli.StringFlag{
				Name:  "image",
				Usage: "Verify the Deployment runs this container image",
			},
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Wait for the rollout to complete instead of reporting once",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaults.K8sRolloutTimeout,
				Usage: "Maximum time to wait for rollout completion",
			},
			kubeconfigFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newKubeClient(cmd.String("kubeconfig"))
			if err != nil {
				return fmt.Errorf("failed to create kubernetes client: %w", err)
			}

			namespace := cmd.String("namespace")
			deployment := cmd.String("deployment")

			var status *k8s.RolloutStatus
			if cmd.Bool("wait") {
				status, err = k8s.WaitForReady(ctx, client, namespace, deployment, cmd.Duration("timeout"))
			} else {
				status, err = k8s.GetRolloutStatus(ctx, client, namespace, deployment)
			}
			if err != nil && status == nil {
				return err
			}
			if err != nil {
				// Timed out waiting. Report the last observed state below.
				slog.Warn("rollout not complete", "error", err)
			}

			if writeErr := writeReport(cmd, status); writeErr != nil {
				return writeErr
			}

			if expected := cmd.String("image"); expected != "" {
				if imgErr := k8s.VerifyImage(status, expected); imgErr != nil {
					return exitWithCode(1, imgErr)
				}
			}

			if !status.Ready {
				return exitWithCode(1, fmt.Errorf("deployment %s/%s is not ready (%d/%d replicas)",
					namespace, deployment, status.ReadyReplicas, status.DesiredReplicas))
			}
			return nil
		},
	}
}
