package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPath_TopLevelScalar(t *testing.T) {
	doc := map[string]any{"full_name": "old"}
	require.NoError(t, setPath(doc, "full_name", "new"))
	require.Equal(t, "new", doc["full_name"])
}

func TestSetPath_ListHeadAutoExpands(t *testing.T) {
	doc := map[string]any{"work_experience": []any{}}
	require.NoError(t, setPath(doc, "work_experience[0].title", "Engineer"))
	list := doc["work_experience"].([]any)
	require.Len(t, list, 1)
	require.Equal(t, "Engineer", list[0].(map[string]any)["title"])

	require.NoError(t, setPath(doc, "work_experience[1].title", "Senior Engineer"))
	list = doc["work_experience"].([]any)
	require.Len(t, list, 2)
}

func TestSetPath_IndexOutOfBoundsErrors(t *testing.T) {
	doc := map[string]any{"work_experience": []any{}}
	err := setPath(doc, "work_experience[3].title", "x")
	require.Error(t, err)
}

func TestSetPath_NestedObjectCreatesIntermediateMaps(t *testing.T) {
	doc := map[string]any{}
	require.NoError(t, setPath(doc, "a.b.c", 1.0))
	require.Equal(t, 1.0, doc["a"].(map[string]any)["b"].(map[string]any)["c"])
}
