package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

func leaf(id string, level int) *models.TeamNode {
	return &models.TeamNode{ID: id, Name: "Member " + id, Level: level}
}

// root with two children, each with one child of its own
func sampleTeam() *models.TeamNode {
	return &models.TeamNode{
		ID: "root", Name: "Asha", ReferralCode: "LL-ROOT", Level: 0,
		Children: []*models.TeamNode{
			{ID: "a", Name: "Bina", Level: 1, Children: []*models.TeamNode{leaf("a1", 2)}},
			{ID: "b", Name: "Chitra", Level: 1, Children: []*models.TeamNode{leaf("b1", 2)}},
		},
	}
}

func countNodes(n *models.TeamNode) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += countNodes(c)
	}
	return total
}

func chain(depth int) *models.TeamNode {
	root := leaf("n0", 0)
	cur := root
	for i := 1; i <= depth; i++ {
		next := leaf(fmt.Sprintf("n%d", i), i)
		cur.Children = []*models.TeamNode{next}
		cur = next
	}
	return root
}

func TestCountDescendants(t *testing.T) {
	t.Run("two children with one child each", func(t *testing.T) {
		assert.Equal(t, 4, CountDescendants(sampleTeam()))
	})

	t.Run("k leaf children", func(t *testing.T) {
		for k := 0; k <= 5; k++ {
			root := leaf("root", 0)
			for i := 0; i < k; i++ {
				root.Children = append(root.Children, leaf(fmt.Sprintf("c%d", i), 1))
			}
			assert.Equal(t, k, CountDescendants(root))
		}
	})

	t.Run("absent and empty children", func(t *testing.T) {
		assert.Equal(t, 0, CountDescendants(nil))
		assert.Equal(t, 0, CountDescendants(&models.TeamNode{ID: "x"}))
		assert.Equal(t, 0, CountDescendants(&models.TeamNode{ID: "x", Children: []*models.TeamNode{}}))
	})

	t.Run("equals node count minus one", func(t *testing.T) {
		trees := []*models.TeamNode{sampleTeam(), chain(10), leaf("solo", 3)}
		for _, tree := range trees {
			assert.Equal(t, countNodes(tree)-1, CountDescendants(tree))
		}
	})

	t.Run("nil entries are ignored", func(t *testing.T) {
		root := &models.TeamNode{ID: "r", Children: []*models.TeamNode{nil, leaf("a", 1), nil}}
		assert.Equal(t, 1, CountDescendants(root))
	})

	t.Run("cyclic input terminates", func(t *testing.T) {
		root := leaf("r", 0)
		child := leaf("c", 1)
		root.Children = []*models.TeamNode{child}
		child.Children = []*models.TeamNode{root}
		assert.Equal(t, 1, CountDescendants(root))
	})
}

func TestCategoryForLevel(t *testing.T) {
	size := len(MatrixPalette)
	for level := 0; level < 3*size; level++ {
		assert.Equal(t, CategoryForLevel(level), CategoryForLevel(level+size), "level %d", level)
		assert.Equal(t, MatrixPalette[level%size], CategoryForLevel(level))
	}

	// cycles rather than clamping to the last entry
	assert.Equal(t, MatrixPalette[0], CategoryForLevel(size))
	assert.Equal(t, MatrixPalette[size-1], CategoryForLevel(-1))
}

func TestBuildMatrix(t *testing.T) {
	matrix, err := BuildMatrix(sampleTeam(), MatrixOptions{})
	require.NoError(t, err)
	require.NotNil(t, matrix)

	assert.Equal(t, "root", matrix.ID)
	assert.Equal(t, "Asha", matrix.Name)
	assert.Equal(t, "LL-ROOT", matrix.ReferralCode)
	assert.Equal(t, 4, matrix.DescendantCount)
	assert.Equal(t, MatrixPalette[0], matrix.Category)
	assert.True(t, matrix.IsLast)
	assert.False(t, matrix.ParentHasMultiple)

	require.Len(t, matrix.Children, 2)
	first, second := matrix.Children[0], matrix.Children[1]
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
	assert.False(t, first.IsLast)
	assert.True(t, second.IsLast)
	assert.True(t, first.ParentHasMultiple)
	assert.Equal(t, 1, first.DescendantCount)
	assert.Equal(t, 1, first.Depth)
	assert.Equal(t, MatrixPalette[1], first.Category)

	require.Len(t, first.Children, 1)
	grandchild := first.Children[0]
	assert.Equal(t, "a1", grandchild.ID)
	assert.Equal(t, 0, grandchild.DescendantCount)
	assert.True(t, grandchild.IsLast)
	assert.False(t, grandchild.ParentHasMultiple)
	assert.Equal(t, 2, grandchild.Depth)
	assert.NotNil(t, grandchild.Children)
	assert.Empty(t, grandchild.Children)
}

func TestBuildMatrixCountsMatchCounter(t *testing.T) {
	tree := sampleTeam()
	tree.Children[1].Children = append(tree.Children[1].Children, chain(4))

	matrix, err := BuildMatrix(tree, MatrixOptions{})
	require.NoError(t, err)

	var check func(n *models.TeamNode, d *models.MatrixNode)
	check = func(n *models.TeamNode, d *models.MatrixNode) {
		assert.Equal(t, CountDescendants(n), d.DescendantCount, "member %s", n.ID)
		require.Len(t, d.Children, len(n.Children))
		for i := range n.Children {
			check(n.Children[i], d.Children[i])
		}
	}
	check(tree, matrix)
}

func TestBuildMatrixIsPureAndIdempotent(t *testing.T) {
	tree := sampleTeam()
	snapshot := sampleTeam()

	first, err := BuildMatrix(tree, MatrixOptions{})
	require.NoError(t, err)
	second, err := BuildMatrix(tree, MatrixOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, tree)
}

func TestBuildMatrixPlaceholders(t *testing.T) {
	tree := &models.TeamNode{Children: []*models.TeamNode{{ID: "only-id"}}}

	matrix, err := BuildMatrix(tree, MatrixOptions{})
	require.NoError(t, err)

	assert.Equal(t, UnknownMemberName, matrix.Name)
	assert.Equal(t, MissingReferralCode, matrix.ReferralCode)
	assert.Equal(t, "only-id", matrix.Children[0].ReferralCode)
	assert.Equal(t, UnknownMemberName, matrix.Children[0].Name)
}

func TestBuildMatrixNilRoot(t *testing.T) {
	matrix, err := BuildMatrix(nil, MatrixOptions{})
	assert.NoError(t, err)
	assert.Nil(t, matrix)
}

func TestBuildMatrixDepthLimit(t *testing.T) {
	_, err := BuildMatrix(chain(5), MatrixOptions{MaxDepth: 5})
	assert.NoError(t, err)

	_, err = BuildMatrix(chain(6), MatrixOptions{MaxDepth: 5})
	assert.True(t, errors.Is(err, ErrMatrixTooDeep))

	_, err = BuildMatrix(chain(DefaultMatrixMaxDepth+1), MatrixOptions{})
	assert.ErrorIs(t, err, ErrMatrixTooDeep)
}

func TestBuildMatrixRejectsCycles(t *testing.T) {
	root := leaf("r", 0)
	child := leaf("c", 1)
	root.Children = []*models.TeamNode{child}
	child.Children = []*models.TeamNode{root}

	_, err := BuildMatrix(root, MatrixOptions{})
	assert.ErrorIs(t, err, ErrMatrixCycle)

	shared := leaf("s", 2)
	dag := &models.TeamNode{ID: "d", Children: []*models.TeamNode{
		{ID: "x", Children: []*models.TeamNode{shared}},
		{ID: "y", Children: []*models.TeamNode{shared}},
	}}
	_, err = BuildMatrix(dag, MatrixOptions{})
	assert.ErrorIs(t, err, ErrMatrixCycle)
}

func TestSummarizeMatrix(t *testing.T) {
	matrix, err := BuildMatrix(sampleTeam(), MatrixOptions{})
	require.NoError(t, err)

	summary := SummarizeMatrix(matrix)
	assert.Equal(t, 5, summary.TotalMembers)
	assert.Equal(t, 4, summary.Descendants)
	assert.Equal(t, 2, summary.MaxDepth)
	assert.Equal(t, map[int]int{0: 1, 1: 2, 2: 2}, summary.ByLevel)
	assert.Equal(t, 2, summary.ByCategory[MatrixPalette[1]])

	empty := SummarizeMatrix(nil)
	assert.Zero(t, empty.TotalMembers)
}
