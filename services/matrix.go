package services

import (
	"errors"
	"fmt"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

// MatrixPalette is the ordered list of visual categories a level maps onto.
// Levels cycle through it: level L and L+len(MatrixPalette) share a category.
var MatrixPalette = []string{"indigo", "emerald", "amber", "rose", "sky", "violet"}

const (
	// UnknownMemberName replaces an empty member name in the rendered matrix
	UnknownMemberName = "Unknown"
	// MissingReferralCode is shown when a member has neither a referral code nor an id
	MissingReferralCode = "N/A"
	// DefaultMatrixMaxDepth bounds how many levels below the root are rendered
	DefaultMatrixMaxDepth = 64
)

var (
	ErrMatrixTooDeep = errors.New("matrix exceeds maximum depth")
	ErrMatrixCycle   = errors.New("matrix contains a cycle")
)

// MatrixOptions tunes BuildMatrix
type MatrixOptions struct {
	// MaxDepth is the deepest level allowed below the root (root is depth 0).
	// Zero means DefaultMatrixMaxDepth.
	MaxDepth int
}

// CategoryForLevel picks the palette entry for a level using modulo indexing
func CategoryForLevel(level int) string {
	n := len(MatrixPalette)
	idx := level % n
	if idx < 0 {
		idx += n
	}
	return MatrixPalette[idx]
}

// CountDescendants returns the number of nodes below node, excluding node
// itself. A nil node or a node without children has no descendants. Nodes
// reachable more than once are counted once.
func CountDescendants(node *models.TeamNode) int {
	if node == nil {
		return 0
	}

	seen := map[*models.TeamNode]struct{}{node: {}}
	stack := []*models.TeamNode{node}
	count := 0
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range n.Children {
			if child == nil {
				continue
			}
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			count++
			stack = append(stack, child)
		}
	}
	return count
}

type matrixFrame struct {
	node    *models.TeamNode
	display *models.MatrixNode
}

// BuildMatrix maps a team tree onto its display structure. The input is
// never modified and descendant counts are computed once, bottom-up. A nil
// root renders as nil.
func BuildMatrix(root *models.TeamNode, opts MatrixOptions) (*models.MatrixNode, error) {
	if root == nil {
		return nil, nil
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMatrixMaxDepth
	}

	seen := map[*models.TeamNode]struct{}{root: {}}
	rootDisplay := newMatrixNode(root, 0, true, false)

	// Breadth-first: every frame is appended after its parent's frame.
	order := []matrixFrame{{node: root, display: rootDisplay}}
	for i := 0; i < len(order); i++ {
		frame := order[i]
		children := liveChildren(frame.node)
		frame.display.Children = make([]*models.MatrixNode, 0, len(children))
		if len(children) == 0 {
			continue
		}

		depth := frame.display.Depth + 1
		if depth > maxDepth {
			return nil, fmt.Errorf("%w: member %q has children below level %d", ErrMatrixTooDeep, frame.node.ID, maxDepth)
		}

		multiple := len(children) > 1
		for idx, child := range children {
			if _, ok := seen[child]; ok {
				return nil, fmt.Errorf("%w: member %q is reached twice", ErrMatrixCycle, child.ID)
			}
			seen[child] = struct{}{}

			display := newMatrixNode(child, depth, idx == len(children)-1, multiple)
			frame.display.Children = append(frame.display.Children, display)
			order = append(order, matrixFrame{node: child, display: display})
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		display := order[i].display
		for _, child := range display.Children {
			display.DescendantCount += 1 + child.DescendantCount
		}
	}

	return rootDisplay, nil
}

// SummarizeMatrix totals a rendered matrix per level and per category
func SummarizeMatrix(root *models.MatrixNode) models.MatrixSummary {
	summary := models.MatrixSummary{
		ByLevel:    map[int]int{},
		ByCategory: map[string]int{},
	}
	if root == nil {
		return summary
	}

	summary.Descendants = root.DescendantCount
	stack := []*models.MatrixNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		summary.TotalMembers++
		summary.ByLevel[n.Level]++
		summary.ByCategory[n.Category]++
		if n.Depth > summary.MaxDepth {
			summary.MaxDepth = n.Depth
		}
		stack = append(stack, n.Children...)
	}
	return summary
}

func newMatrixNode(n *models.TeamNode, depth int, isLast, parentHasMultiple bool) *models.MatrixNode {
	return &models.MatrixNode{
		ID:                n.ID,
		Name:              displayName(n),
		ReferralCode:      displayReferralCode(n),
		Level:             n.Level,
		Category:          CategoryForLevel(n.Level),
		Depth:             depth,
		IsLast:            isLast,
		ParentHasMultiple: parentHasMultiple,
	}
}

func liveChildren(n *models.TeamNode) []*models.TeamNode {
	for _, c := range n.Children {
		if c == nil {
			out := make([]*models.TeamNode, 0, len(n.Children))
			for _, child := range n.Children {
				if child != nil {
					out = append(out, child)
				}
			}
			return out
		}
	}
	return n.Children
}

func displayName(n *models.TeamNode) string {
	if n.Name == "" {
		return UnknownMemberName
	}
	return n.Name
}

func displayReferralCode(n *models.TeamNode) string {
	switch {
	case n.ReferralCode != "":
		return n.ReferralCode
	case n.ID != "":
		return n.ID
	default:
		return MissingReferralCode
	}
}
