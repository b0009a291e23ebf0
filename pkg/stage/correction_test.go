package stage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
)

func tailoredRoles(bulletCounts ...int) []cv.WorkRole {
	roles := make([]cv.WorkRole, 0, len(bulletCounts))
	for _, n := range bulletCounts {
		role := cv.WorkRole{DateRange: "2020-2024", Employer: "Acme Corp", Title: "Engineer"}
		for j := 0; j < n; j++ {
			role.Bullets = append(role.Bullets, "Did useful work")
		}
		roles = append(roles, role)
	}
	return roles
}

func TestWorkConstraintViolations_CleanProposal(t *testing.T) {
	violations, affected := workConstraintViolations(tailoredRoles(4, 3, 2))
	require.Empty(t, violations)
	require.Empty(t, affected)
}

func TestWorkConstraintViolations_RoleCountIsListLevel(t *testing.T) {
	violations, affected := workConstraintViolations(tailoredRoles(4, 4))
	require.NotEmpty(t, violations)
	require.Equal(t, []int{0, 1}, affected, "list-level breach must mark every role affected")
}

func TestWorkConstraintViolations_BulletLengthBoundary(t *testing.T) {
	roles := tailoredRoles(4, 3, 2)
	roles[1].Bullets[0] = strings.Repeat("x", 200)
	violations, _ := workConstraintViolations(roles)
	require.Empty(t, violations, "200 chars is the limit, not over it")

	roles[1].Bullets[0] = strings.Repeat("x", 201)
	violations, affected := workConstraintViolations(roles)
	require.Len(t, violations, 1)
	require.Equal(t, []int{1}, affected, "bullet-level breach affects only the offending role")
}

func TestWorkConstraintViolations_TotalBulletWindow(t *testing.T) {
	violations, _ := workConstraintViolations(tailoredRoles(2, 2, 3))
	require.NotEmpty(t, violations, "7 bullets total is under the window")

	violations, _ = workConstraintViolations(tailoredRoles(4, 4, 4))
	require.Empty(t, violations, "12 bullets total is the upper edge of the window")
}
