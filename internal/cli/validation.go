package cli

import (
	"fmt"
	"strings"

	"github.com/example/mqmon/internal/core/capture"
	"github.com/example/mqmon/internal/core/groundtruth"
	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/core/schedule"
)

// validatePartition checks a --capture-prefix value and explains the
// expected format when it is wrong.
func validatePartition(p string) error {
	if p == "" {
		return fmt.Errorf("--capture-prefix is required, in the format YYYY/MM/DD/HH")
	}
	if capture.ValidPartition(p) {
		return nil
	}
	if strings.Count(p, "-") == 3 {
		return fmt.Errorf("invalid capture prefix '%s'. Use slashes: %s", p, strings.ReplaceAll(p, "-", "/"))
	}
	return fmt.Errorf("invalid capture prefix '%s'. Expected format: YYYY/MM/DD/HH", p)
}

func validatePolicy(p string) error {
	switch strings.ToLower(p) {
	case groundtruth.PolicyRandom, groundtruth.PolicyCompare, groundtruth.PolicyTruth:
		return nil
	}
	return fmt.Errorf("invalid --policy '%s'. Use %s, %s or %s", p,
		groundtruth.PolicyRandom, groundtruth.PolicyCompare, groundtruth.PolicyTruth)
}

func validateProblemType(p string) error {
	if schedule.ValidProblemType(p) {
		return nil
	}
	return fmt.Errorf("invalid --problem-type '%s'. Use %s, %s or %s", p,
		schedule.ProblemRegression, schedule.ProblemBinary, schedule.ProblemMulticlass)
}

func validateRole(r string) error {
	switch handle.Role(r) {
	case "", handle.RoleEndpoint, handle.RoleModel, handle.RoleMonitor, handle.RoleSchedule:
		return nil
	}
	return fmt.Errorf("invalid --role '%s'. Use %s, %s, %s or %s", r,
		handle.RoleEndpoint, handle.RoleModel, handle.RoleMonitor, handle.RoleSchedule)
}
