package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/metrics"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/utils"
)

// TeamStore loads members and their downline
type TeamStore interface {
	FindMember(ctx context.Context, memberID string) (*models.TeamMember, error)
	FindDownline(ctx context.Context, rootID string, maxDepth int) (*models.TeamNode, error)
	// AssignReferralCode stores code unless the member already has one and
	// returns the code the member ends up with
	AssignReferralCode(ctx context.Context, memberID, code string) (string, error)
}

// MatrixCache keeps rendered matrices for a short while
type MatrixCache interface {
	Get(ctx context.Context, rootID string) (*models.MatrixResponse, bool, error)
	Set(ctx context.Context, rootID string, resp *models.MatrixResponse) error
	Invalidate(ctx context.Context, rootID string) error
}

const referralCodeAttempts = 5

type TeamService struct {
	store        TeamStore
	cache        MatrixCache
	maxDepth     int
	generateCode func() (string, error)
}

// NewTeamService wires the team store with an optional cache (nil disables caching)
func NewTeamService(store TeamStore, cache MatrixCache, maxDepth int) *TeamService {
	if maxDepth <= 0 {
		maxDepth = DefaultMatrixMaxDepth
	}
	return &TeamService{
		store:        store,
		cache:        cache,
		maxDepth:     maxDepth,
		generateCode: utils.GenerateReferralCode,
	}
}

// ReferralCode returns the member's referral code, assigning one on first use
func (s *TeamService) ReferralCode(ctx context.Context, memberID string) (string, error) {
	member, err := s.store.FindMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	if member.ReferralCode != "" {
		return member.ReferralCode, nil
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return "", err
		}
		assigned, err := s.store.AssignReferralCode(ctx, memberID, code)
		if errors.Is(err, models.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		zap.L().Info("referral code assigned", zap.String("memberId", memberID), zap.String("code", assigned))
		s.invalidateUpline(ctx, member)
		return assigned, nil
	}
	return "", fmt.Errorf("failed to assign referral code to %s: %w", memberID, models.ErrReferralCodeTaken)
}

// invalidateUpline drops the cached matrices that display member: its own
// and those of its ancestors within maxDepth levels
func (s *TeamService) invalidateUpline(ctx context.Context, member *models.TeamMember) {
	if s.cache == nil {
		return
	}
	id, parentID := member.ID, member.ParentID
	for level := 0; ; level++ {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			zap.L().Warn("matrix cache invalidation failed", zap.String("memberId", id), zap.Error(err))
		}
		if parentID == "" || level >= s.maxDepth {
			return
		}
		parent, err := s.store.FindMember(ctx, parentID)
		if err != nil {
			zap.L().Warn("failed to load ancestor for cache invalidation", zap.String("memberId", parentID), zap.Error(err))
			return
		}
		id, parentID = parent.ID, parent.ParentID
	}
}

// MemberMatrix renders the matrix rooted at memberID
func (s *TeamService) MemberMatrix(ctx context.Context, memberID string) (*models.MatrixResponse, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, memberID)
		if err != nil {
			zap.L().Warn("matrix cache read failed", zap.String("memberId", memberID), zap.Error(err))
		}
		metrics.RecordMatrixCache(ok)
		if ok {
			cached.Cached = true
			return cached, nil
		}
	}

	tree, err := s.store.FindDownline(ctx, memberID, s.maxDepth)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matrix, err := BuildMatrix(tree, MatrixOptions{MaxDepth: s.maxDepth})
	if err != nil {
		return nil, err
	}
	summary := SummarizeMatrix(matrix)
	metrics.ObserveMatrixBuild(time.Since(start), summary.TotalMembers)

	resp := &models.MatrixResponse{Matrix: matrix, Summary: summary}
	if s.cache != nil {
		if err := s.cache.Set(ctx, memberID, resp); err != nil {
			zap.L().Warn("matrix cache write failed", zap.String("memberId", memberID), zap.Error(err))
		}
	}
	return resp, nil
}

// DescendantCount returns how many members sit below memberID. The downline
// store cuts trees off below maxDepth, so the count goes through the same
// depth check as the matrix and fails with ErrMatrixTooDeep instead of
// under-counting.
func (s *TeamService) DescendantCount(ctx context.Context, memberID string) (int, error) {
	resp, err := s.MemberMatrix(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if resp.Matrix == nil {
		return 0, nil
	}
	return resp.Matrix.DescendantCount, nil
}
