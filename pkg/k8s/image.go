/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package k8s

import (
	"fmt"

	"github.com/distribution/reference"
)

// NormalizeImage expands an image reference to its fully qualified form
// (registry, repository, tag), so "wisecow:1.2" and
// "docker.io/library/wisecow:1.2" compare equal.
func NormalizeImage(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", image, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// VerifyImage checks that the Deployment is running the expected container
// image, comparing normalized references.
func VerifyImage(status *RolloutStatus, expected string) error {
	if status.Image == "" {
		return fmt.Errorf("deployment %s/%s has no container image", status.Namespace, status.Name)
	}

	want, err := NormalizeImage(expected)
	if err != nil {
		return err
	}
	got, err := NormalizeImage(status.Image)
	if err != nil {
		return err
	}

	if want != got {
		return fmt.Errorf("deployment %s/%s runs %s, expected %s",
			status.Namespace, status.Name, got, want)
	}
	return nil
}
