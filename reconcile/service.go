package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fiscalflow/client"
	"fiscalflow/docstore"
	"fiscalflow/doctext"
	"fiscalflow/extraction"
	"fiscalflow/logger"
	"fiscalflow/match"
	"fiscalflow/obligation"
)

const (
	defaultRunTimeout    = 15 * time.Minute
	defaultFetchTimeout  = 30 * time.Second
	defaultCommitTimeout = 30 * time.Second
)

// Service orchestrates reconciliation runs. All cross-activity state
// (schemas, client profiles) is resolved up front and read-only for the
// duration of a run.
type Service struct {
	activities obligation.Repository
	schemas    extraction.SchemaRepository
	clients    client.Reader
	docs       docstore.Client
	validator  *match.Validator
	log        *logger.Logger

	now           func() time.Time
	idGen         func() string
	extract       func([]byte) (doctext.Document, error)
	runTimeout    time.Duration
	fetchTimeout  time.Duration
	commitTimeout time.Duration
}

func NewService(
	activities obligation.Repository,
	schemas extraction.SchemaRepository,
	clients client.Reader,
	docs docstore.Client,
	log *logger.Logger,
) *Service {
	return &Service{
		activities:    activities,
		schemas:       schemas,
		clients:       clients,
		docs:          docs,
		validator:     match.NewValidator(extraction.DefaultTagVocabulary()),
		log:           log,
		now:           time.Now,
		idGen:         uuid.NewString,
		extract:       doctext.Extract,
		runTimeout:    defaultRunTimeout,
		fetchTimeout:  defaultFetchTimeout,
		commitTimeout: defaultCommitTimeout,
	}
}

// WithTimeouts overrides the run-level and per-fetch budgets.
func (s *Service) WithTimeouts(run, fetch time.Duration) *Service {
	if run > 0 {
		s.runTimeout = run
	}
	if fetch > 0 {
		s.fetchTimeout = fetch
	}
	return s
}

// Run reconciles every pending activity matching the params. Activities are
// processed concurrently; the per-activity candidate sets sequentially, in
// stable listing order, so first-seen-wins tie-breaks are deterministic.
// Only run-level setup failures (missing credential, unreachable store)
// return an error; everything else is captured in the summary.
func (s *Service) Run(ctx context.Context, params RunParams) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	filter := obligation.Filter{
		ObligationTypeID: params.ObligationTypeID,
		TenantID:         params.TenantID,
	}
	acts, err := s.activities.ListPendingActivities(ctx, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("reconcile: list pending activities: %w", err)
	}

	schemas, err := s.loadSchemas(ctx, acts)
	if err != nil {
		return Summary{}, err
	}
	profiles, err := s.loadClients(ctx, acts)
	if err != nil {
		return Summary{}, err
	}

	runID := s.idGen()
	s.log.Info("reconcile.run.start",
		"run_id", runID,
		"activities", len(acts),
		"obligation_type_id", params.ObligationTypeID,
		"tenant_id", params.TenantID,
	)

	outcomes := make([]Outcome, len(acts))
	g, gctx := errgroup.WithContext(ctx)
	for i, act := range acts {
		g.Go(func() error {
			out, fatal := s.reconcileActivity(gctx, act, schemas, profiles, params.ActorID)
			outcomes[i] = out
			return fatal
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{RunID: runID, Total: len(outcomes), PerActivity: outcomes}
	for _, out := range outcomes {
		if out.Status == StatusSuccess {
			summary.Successes++
		} else {
			summary.Failures++
		}
	}
	s.log.Info("reconcile.run.done",
		"run_id", runID,
		"total", summary.Total,
		"successes", summary.Successes,
		"failures", summary.Failures,
	)
	return summary, nil
}

// RunActivity reconciles a single activity; used for manual retry and
// debugging. Same contract as Run with cardinality one.
func (s *Service) RunActivity(ctx context.Context, activityID, actorID string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	act, err := s.activities.GetActivity(ctx, activityID)
	if err != nil {
		return Outcome{}, fmt.Errorf("reconcile: get activity: %w", err)
	}

	acts := []obligation.Activity{act}
	schemas, err := s.loadSchemas(ctx, acts)
	if err != nil {
		return Outcome{}, err
	}
	profiles, err := s.loadClients(ctx, acts)
	if err != nil {
		return Outcome{}, err
	}

	out, fatal := s.reconcileActivity(ctx, act, schemas, profiles, actorID)
	if fatal != nil {
		return Outcome{}, fatal
	}
	return out, nil
}

// loadSchemas prefetches the distinct schemas referenced by the activities.
// A missing schema is left out of the map and surfaces as a per-activity
// failure; a store error aborts the run.
func (s *Service) loadSchemas(ctx context.Context, acts []obligation.Activity) (map[string]extraction.Schema, error) {
	out := make(map[string]extraction.Schema)
	for _, act := range acts {
		if act.ExtractionSchemaID == nil {
			continue
		}
		id := *act.ExtractionSchemaID
		if _, done := out[id]; done {
			continue
		}
		schema, err := s.schemas.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, extraction.ErrSchemaNotFound) {
				s.log.Warn("reconcile.schema_missing", "schema_id", id)
				continue
			}
			return nil, fmt.Errorf("reconcile: load schema %s: %w", id, err)
		}
		out[id] = schema
	}
	return out, nil
}

// loadClients prefetches the distinct client profiles. A missing profile
// surfaces as a per-activity failure; a store error aborts the run.
func (s *Service) loadClients(ctx context.Context, acts []obligation.Activity) (map[string]client.Profile, error) {
	out := make(map[string]client.Profile)
	for _, act := range acts {
		if _, done := out[act.ClientID]; done {
			continue
		}
		profile, err := s.clients.GetByID(ctx, act.ClientID)
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				s.log.Warn("reconcile.client_missing", "client_id", act.ClientID)
				continue
			}
			return nil, fmt.Errorf("reconcile: load client %s: %w", act.ClientID, err)
		}
		out[act.ClientID] = profile
	}
	return out, nil
}

type candidateBest struct {
	meta      docstore.DocumentMeta
	content   []byte
	score     int
	extracted match.Extracted
	validated bool
}

// reconcileActivity evaluates all candidates for one activity and commits
// the best. The returned error is non-nil only for run-fatal conditions;
// every other failure is folded into the outcome.
func (s *Service) reconcileActivity(
	ctx context.Context,
	act obligation.Activity,
	schemas map[string]extraction.Schema,
	profiles map[string]client.Profile,
	actorID string,
) (Outcome, error) {
	out := Outcome{ActivityID: act.ID, ObligationID: act.ObligationID, Status: StatusFailure}

	// Completed activities are never touched: no writes for non-pending
	// input keeps re-runs idempotent.
	if act.Completed {
		out.Reason = ReasonAlreadyCompleted
		return out, nil
	}

	// An attachment without completion marks a commit interrupted between
	// attach and mark-complete; finish it instead of re-deriving content.
	if act.HasAttachment {
		return s.resume(ctx, act, actorID), nil
	}

	profile, ok := profiles[act.ClientID]
	if !ok {
		out.Reason = fmt.Sprintf("client profile %s unavailable", act.ClientID)
		return out, nil
	}

	schema, schemaConfigured := extraction.Schema{}, false
	if act.ExtractionSchemaID != nil {
		schema, schemaConfigured = schemas[*act.ExtractionSchemaID]
		if !schemaConfigured {
			out.Reason = fmt.Sprintf("extraction schema %s not found", *act.ExtractionSchemaID)
			return out, nil
		}
	}

	listCtx, cancelList := context.WithTimeout(ctx, s.fetchTimeout)
	docs, err := s.docs.ListDocuments(listCtx, profile.TaxID, docstore.ListFilters{})
	cancelList()
	if err != nil {
		if errors.Is(err, docstore.ErrNoCredential) {
			return out, fmt.Errorf("reconcile: %w", err)
		}
		out.Reason = fmt.Sprintf("document repository listing failed: %v", err)
		return out, nil
	}

	candidates := make([]docstore.DocumentMeta, 0, len(docs))
	for _, d := range docs {
		if titleMatches(d.Title, act.ExpectedDocumentTitle) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		out.Reason = ReasonNoMatchingTitle
		return out, nil
	}

	target := match.Target{Month: act.Period.Month, Year: act.Period.Year}
	var best *candidateBest
	cancelled := false

	for _, cand := range candidates {
		// On run cancellation the current candidate is finished but no
		// new one is started; the partial outcome is still reported.
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		fetchCtx, cancelFetch := context.WithTimeout(ctx, s.fetchTimeout)
		content, err := s.docs.FetchContent(fetchCtx, cand.ExternalID, profile.TaxID)
		cancelFetch()
		if err != nil {
			s.log.Warn("reconcile.fetch_failed",
				"activity_id", act.ID, "external_id", cand.ExternalID, "err", err)
			continue
		}
		out.DocumentsExamined++

		if !schemaConfigured {
			// Baseline acceptance without validation; the strictly-greater
			// comparison keeps the first retrievable candidate.
			if best == nil || match.ScoreUnvalidated > best.score {
				best = &candidateBest{meta: cand, content: content, score: match.ScoreUnvalidated}
			}
			continue
		}

		doc, err := s.extract(content)
		if err != nil {
			s.log.Warn("reconcile.unreadable_content",
				"activity_id", act.ID, "external_id", cand.ExternalID, "err", err)
			continue
		}

		res := s.validator.Validate(doc, schema, target)
		if !res.Success {
			s.log.Debug("reconcile.candidate_rejected",
				"activity_id", act.ID, "external_id", cand.ExternalID, "reason", res.Reason)
			continue
		}

		score := match.Score(match.ScoreInput{
			Extracted:          res.Extracted,
			ClientNameResolved: profile.Name != "",
			Target:             target,
		})
		if best == nil || score > best.score {
			best = &candidateBest{
				meta:      cand,
				content:   content,
				score:     score,
				extracted: res.Extracted,
				validated: true,
			}
		}
	}

	if best == nil {
		if cancelled {
			out.Reason = ReasonRunCancelled
		} else {
			out.Reason = ReasonNoValidDocument
		}
		return out, nil
	}

	if err := s.commit(ctx, act, best, actorID); err != nil {
		out.Reason = fmt.Sprintf("commit failed: %v", err)
		return out, nil
	}

	out.Status = StatusSuccess
	out.Reason = ""
	out.Score = best.score
	out.DocumentTitle = best.meta.Title
	out.ExternalID = best.meta.ExternalID
	out.Method = MethodNoValidation
	if best.validated {
		out.Method = MethodSchemaValidated
	}
	return out, nil
}

// commit applies the winning match: attach bytes, mark completed, append the
// audit note. The context is detached so a run-level cancellation arriving
// mid-commit cannot tear the sequence apart; an interruption between steps
// still leaves the resumable state behind.
func (s *Service) commit(ctx context.Context, act obligation.Activity, best *candidateBest, actorID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()

	filename := buildFilename(act.ExpectedDocumentTitle, best.extracted.ObligationTag,
		best.extracted.Period, best.meta.ExternalID, best.validated)

	if err := s.activities.AttachContent(ctx, act.ID, best.content, filename); err != nil {
		return err
	}

	at := s.now()
	if err := s.activities.MarkCompleted(ctx, act.ID, at); err != nil {
		return err
	}

	note := auditNote(best, at)
	if err := s.activities.AppendAuditNote(ctx, act.ObligationID, note, actorID, at); err != nil {
		return err
	}
	return nil
}

// resume finishes an interrupted commit: the attachment is already stored,
// so only the completion and its audit trail are missing.
func (s *Service) resume(ctx context.Context, act obligation.Activity, actorID string) Outcome {
	out := Outcome{ActivityID: act.ID, ObligationID: act.ObligationID, Status: StatusFailure, Method: MethodResumed}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()

	at := s.now()
	if err := s.activities.MarkCompleted(ctx, act.ID, at); err != nil {
		out.Reason = fmt.Sprintf("resume failed: %v", err)
		return out
	}

	filename := ""
	if act.AttachedFilename != nil {
		filename = *act.AttachedFilename
	}
	note := fmt.Sprintf("reconciliation resumed at %s: completed activity with previously attached document %q",
		at.UTC().Format(time.RFC3339), filename)
	if err := s.activities.AppendAuditNote(ctx, act.ObligationID, note, actorID, at); err != nil {
		out.Reason = fmt.Sprintf("resume failed: %v", err)
		return out
	}

	out.Status = StatusSuccess
	return out
}

// titleMatches applies the pre-filter: exact or substring match of the
// document title against the expected title, case-insensitive, in either
// direction.
func titleMatches(docTitle, expectedTitle string) bool {
	a := strings.ToLower(strings.TrimSpace(docTitle))
	b := strings.ToLower(strings.TrimSpace(expectedTitle))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func auditNote(best *candidateBest, at time.Time) string {
	if !best.validated {
		return fmt.Sprintf("reconciliation attached document %q (external id %s, score %d) at %s; no schema validation performed",
			best.meta.Title, best.meta.ExternalID, best.score, at.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("reconciliation attached document %q (external id %s, score %d) at %s; extracted tag=%s tax_id=%s period=%s",
		best.meta.Title, best.meta.ExternalID, best.score, at.UTC().Format(time.RFC3339),
		best.extracted.ObligationTag, best.extracted.TaxID, best.extracted.Period)
}
