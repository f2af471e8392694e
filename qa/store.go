// Package qa persists reviewer assessments: one rating, a tag set and free
// notes per conversation, kept in the qa_assessments table next to the
// warehouse data.
package qa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultReviewerID = "system"

var (
	ErrInvalidRating = errors.New("rating must be one of good, okay, bad")
	ErrInvalidTag    = errors.New("tags must be non-empty and must not contain commas")
)

const assessmentColumns = `id, conversation_id, reviewer_id, rating, tags, notes, created_at, updated_at`

// Patch carries the fields of a partial update. Nil fields keep their value.
type Patch struct {
	Rating *models.QARating `json:"rating,omitempty"`
	Tags   *[]string        `json:"tags,omitempty"`
	Notes  *string          `json:"notes,omitempty"`
}

const defaultQueryTimeout = 25 * time.Second

type Store struct {
	exec    store.Executor
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewStore bounds every statement by queryTimeout; zero or less uses 25s.
func NewStore(exec store.Executor, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Store{
		exec:    exec,
		timeout: queryTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Store) query(ctx context.Context, sqlText string, args ...any) ([]store.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.exec.Query(ctx, sqlText, args...)
}

func (s *Store) execute(ctx context.Context, sqlText string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.exec.Exec(ctx, sqlText, args...)
}

// Get returns the most recently updated assessment for the conversation.
func (s *Store) Get(ctx context.Context, conversationID string) (models.QAAssessment, bool, error) {
	rows, err := s.query(ctx, `SELECT `+assessmentColumns+`
FROM qa_assessments
WHERE conversation_id = $1
ORDER BY updated_at DESC, id DESC
LIMIT 1`, conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to fetch QA assessment")
		return models.QAAssessment{}, false, err
	}
	if len(rows) == 0 {
		return models.QAAssessment{}, false, nil
	}
	return fromRow(rows[0]), true, nil
}

func (s *Store) SetRating(ctx context.Context, reviewerID, conversationID string, rating models.QARating) (models.QAAssessment, error) {
	if !rating.Valid() {
		return models.QAAssessment{}, ErrInvalidRating
	}
	return s.Update(ctx, reviewerID, conversationID, Patch{Rating: &rating})
}

// AddTags merges tags into the conversation's tag set, keeping first-seen order.
func (s *Store) AddTags(ctx context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, error) {
	tags, err := CleanTags(tags)
	if err != nil {
		return models.QAAssessment{}, err
	}

	existing, found, err := s.Get(ctx, conversationID)
	if err != nil {
		return models.QAAssessment{}, err
	}

	merged := tags
	if found {
		merged = mergeTags(existing.Tags, tags)
	}
	return s.Update(ctx, reviewerID, conversationID, Patch{Tags: &merged})
}

// RemoveTags drops tags from an existing assessment. found is false when the
// conversation has never been assessed; nothing is created in that case.
func (s *Store) RemoveTags(ctx context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, bool, error) {
	existing, found, err := s.Get(ctx, conversationID)
	if err != nil || !found {
		return models.QAAssessment{}, false, err
	}

	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[strings.TrimSpace(t)] = true
	}

	kept := make([]string, 0, len(existing.Tags))
	for _, t := range existing.Tags {
		if !drop[t] {
			kept = append(kept, t)
		}
	}

	updated, err := s.Update(ctx, reviewerID, conversationID, Patch{Tags: &kept})
	if err != nil {
		return models.QAAssessment{}, false, err
	}
	return updated, true, nil
}

// SetNotes replaces the notes. Blank notes clear them.
func (s *Store) SetNotes(ctx context.Context, reviewerID, conversationID, notes string) (models.QAAssessment, error) {
	return s.Update(ctx, reviewerID, conversationID, Patch{Notes: &notes})
}

// Update applies a patch, creating the assessment on first write with an
// okay rating and no tags.
func (s *Store) Update(ctx context.Context, reviewerID, conversationID string, p Patch) (models.QAAssessment, error) {
	if p.Rating != nil && !p.Rating.Valid() {
		return models.QAAssessment{}, ErrInvalidRating
	}
	if p.Tags != nil {
		cleaned, err := CleanTags(*p.Tags)
		if err != nil {
			return models.QAAssessment{}, err
		}
		p.Tags = &cleaned
	}
	if reviewerID == "" {
		reviewerID = DefaultReviewerID
	}

	existing, found, err := s.Get(ctx, conversationID)
	if err != nil {
		return models.QAAssessment{}, err
	}

	next := existing
	if !found {
		next = models.QAAssessment{
			ID:             s.newID(),
			ConversationID: conversationID,
			Rating:         models.RatingOkay,
			Tags:           []string{},
		}
	}
	next.ReviewerID = reviewerID
	if p.Rating != nil {
		next.Rating = *p.Rating
	}
	if p.Tags != nil {
		next.Tags = *p.Tags
	}
	if p.Notes != nil {
		next.Notes = notesPtr(*p.Notes)
	}

	now := s.now().UTC()
	next.UpdatedAt = now

	if found {
		_, err = s.execute(ctx, `UPDATE qa_assessments
SET reviewer_id = $1, rating = $2, tags = $3, notes = $4, updated_at = $5
WHERE conversation_id = $6`,
			next.ReviewerID, string(next.Rating), joinTags(next.Tags), nullable(next.Notes), now, conversationID)
	} else {
		next.CreatedAt = now
		_, err = s.execute(ctx, `INSERT INTO qa_assessments (`+assessmentColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			next.ID, conversationID, next.ReviewerID, string(next.Rating), joinTags(next.Tags), nullable(next.Notes), now, now)
	}
	if err != nil {
		log.Error().Err(err).
			Str("conversation_id", conversationID).
			Str("reviewer_id", reviewerID).
			Bool("created", !found).
			Msg("Failed to write QA assessment")
		return models.QAAssessment{}, err
	}

	log.Debug().
		Str("conversation_id", conversationID).
		Str("reviewer_id", reviewerID).
		Str("rating", string(next.Rating)).
		Msg("QA assessment saved")

	return next, nil
}

// GetBulk returns the latest assessment per id. Ids without one map to nil.
func (s *Store) GetBulk(ctx context.Context, conversationIDs []string) (map[string]*models.QAAssessment, error) {
	out := make(map[string]*models.QAAssessment, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	values := make([]any, len(conversationIDs))
	for i, id := range conversationIDs {
		out[id] = nil
		values[i] = id
	}

	var b filter.Builder
	where := b.Where([]filter.Predicate{filter.InList{Expr: "conversation_id", Values: values}})

	rows, err := s.query(ctx, fmt.Sprintf(`SELECT %s
FROM qa_assessments
%s
ORDER BY conversation_id, updated_at DESC, id DESC`, assessmentColumns, where), b.Args()...)
	if err != nil {
		log.Error().Err(err).Int("count", len(conversationIDs)).Msg("Failed to fetch bulk QA assessments")
		return nil, err
	}

	for _, row := range rows {
		a := fromRow(row)
		if out[a.ConversationID] == nil {
			out[a.ConversationID] = &a
		}
	}
	return out, nil
}

// GetAllTags lists every tag in use, sorted.
func (s *Store) GetAllTags(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT tags FROM qa_assessments WHERE tags IS NOT NULL`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch QA tags")
		return nil, err
	}

	seen := make(map[string]bool)
	tags := []string{}
	for _, row := range rows {
		for _, t := range splitTags(row.String("tags")) {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// DeleteTag removes tag from every assessment and reports how many changed.
func (s *Store) DeleteTag(ctx context.Context, tag string) (int, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.Contains(tag, ",") {
		return 0, ErrInvalidTag
	}

	rows, err := s.query(ctx, `SELECT id, tags FROM qa_assessments WHERE tags IS NOT NULL`)
	if err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("Failed to scan QA tags")
		return 0, err
	}

	now := s.now().UTC()
	changed := 0
	for _, row := range rows {
		tags := splitTags(row.String("tags"))
		kept := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != tag {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(tags) {
			continue
		}

		if _, err := s.execute(ctx, `UPDATE qa_assessments SET tags = $1, updated_at = $2 WHERE id = $3`,
			joinTags(kept), now, row.String("id")); err != nil {
			log.Error().Err(err).Str("tag", tag).Str("id", row.String("id")).Msg("Failed to delete QA tag")
			return changed, err
		}
		changed++
	}

	log.Info().Str("tag", tag).Int("assessments", changed).Msg("QA tag deleted")
	return changed, nil
}

// SetBulkRating rates each conversation in turn and stops at the first failure.
func (s *Store) SetBulkRating(ctx context.Context, reviewerID string, conversationIDs []string, rating models.QARating) (map[string]models.QAAssessment, error) {
	if !rating.Valid() {
		return nil, ErrInvalidRating
	}

	out := make(map[string]models.QAAssessment, len(conversationIDs))
	for _, id := range conversationIDs {
		a, err := s.SetRating(ctx, reviewerID, id, rating)
		if err != nil {
			return nil, err
		}
		out[id] = a
	}
	return out, nil
}

func (s *Store) AddBulkTags(ctx context.Context, reviewerID string, conversationIDs []string, tags []string) error {
	if _, err := CleanTags(tags); err != nil {
		return err
	}
	for _, id := range conversationIDs {
		if _, err := s.AddTags(ctx, reviewerID, id, tags); err != nil {
			return err
		}
	}
	return nil
}

// CleanTags trims and dedupes tags, rejecting blank ones and ones with commas.
func CleanTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || strings.Contains(t, ",") {
			return nil, ErrInvalidTag
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func mergeTags(existing, added []string) []string {
	out := append([]string{}, existing...)
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range added {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func notesPtr(notes string) *string {
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	return &notes
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromRow(row store.Row) models.QAAssessment {
	a := models.QAAssessment{
		ID:             row.String("id"),
		ConversationID: row.String("conversation_id"),
		ReviewerID:     row.String("reviewer_id"),
		Rating:         models.QARating(row.String("rating")),
		Tags:           splitTags(row.String("tags")),
		Notes:          notesPtr(row.String("notes")),
	}
	if a.ReviewerID == "" {
		a.ReviewerID = DefaultReviewerID
	}
	if !a.Rating.Valid() {
		a.Rating = models.RatingOkay
	}
	a.CreatedAt, _ = row.Time("created_at")
	a.UpdatedAt, _ = row.Time("updated_at")
	return a
}
