package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTitleExpandsAbbreviationsAndStripsModifiers(t *testing.T) {
	title := NormalizeTitle("Interim Dir. of Library Services")
	require.Equal(t, "Director of Library Services", title.Normalized)
	require.True(t, title.Temporary)
	require.True(t, title.Abbreviated)
	require.False(t, title.Excluded)
	require.Equal(t, -5, title.ConfidenceModifier())
}

func TestNormalizeTitleAdjunctParentheticalExcludes(t *testing.T) {
	title := NormalizeTitle("Dir. of Library Services (Adjunct)")
	require.True(t, title.Excluded)
}

func TestNormalizeTitleEmeritusExcluded(t *testing.T) {
	require.True(t, NormalizeTitle("Professor Emeritus of Law").Excluded)
	require.True(t, NormalizeTitle("Dean Emerita").Excluded)
	require.True(t, NormalizeTitle("Former Library Director").Excluded)
}

func TestNormalizeTitleSupportStaffExcluded(t *testing.T) {
	require.True(t, NormalizeTitle("Assistant to the Dean").Excluded)
	require.True(t, NormalizeTitle("Executive Assistant to the Director").Excluded)
}

func TestNormalizeTitleStudentRolesExcluded(t *testing.T) {
	require.True(t, NormalizeTitle("Student Director of Outreach").Excluded)
	require.True(t, NormalizeTitle("Graduate Assistant").Excluded)
	require.True(t, NormalizeTitle("Work-Study Clerk").Excluded)
}

func TestNormalizeTitleSharedRole(t *testing.T) {
	title := NormalizeTitle("Co-Director of Legal Writing")
	require.True(t, title.SharedRole)
	require.False(t, title.Excluded)
	require.Equal(t, 2, title.ConfidenceModifier())
}

func TestNormalizeTitleSeniorityStripped(t *testing.T) {
	title := NormalizeTitle("Sr. Program Coordinator")
	require.Equal(t, "Program Coordinator", title.Normalized)
	require.True(t, title.Abbreviated)
	require.False(t, title.Temporary)
}

func TestNormalizeTitleCleanTitleZeroModifier(t *testing.T) {
	title := NormalizeTitle("Library Director")
	require.Equal(t, "Library Director", title.Normalized)
	require.Zero(t, title.ConfidenceModifier())
}

func TestNormalizeTitleDashSuffixDropped(t *testing.T) {
	title := NormalizeTitle("Library Director - On Leave Fall 2026")
	require.Equal(t, "Library Director", title.Normalized)
}

func TestNormalizeTitleEmptyInputExcluded(t *testing.T) {
	require.True(t, NormalizeTitle("   ").Excluded)
}
