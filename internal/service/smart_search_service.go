package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"literature-search-be/internal/dto"
	"literature-search-be/internal/entity"
	"literature-search-be/internal/metrics"
	"literature-search-be/internal/pkg/logger"
	"literature-search-be/internal/repository/memory"
	"literature-search-be/internal/repository/specification"
	"literature-search-be/internal/repository/unitofwork"
	"literature-search-be/pkg/events"
	"literature-search-be/pkg/smartsearch"

	"github.com/google/uuid"
)

const (
	smartSearchModule   = "SmartSearchService"
	defaultRunsPageSize = 20
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrFeatureNotFound  = errors.New("feature not found")
)

type ISmartSearchService interface {
	Start(ctx context.Context, userId uuid.UUID) (*dto.WorkflowResponse, error)
	Resume(ctx context.Context, userId uuid.UUID, req *dto.ResumeWorkflowRequest) (*dto.WorkflowResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)
	ClearError(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)

	SubmitQuestion(ctx context.Context, userId, id uuid.UUID, req *dto.SubmitQuestionRequest) (*dto.WorkflowResponse, error)
	GenerateKeywords(ctx context.Context, userId, id uuid.UUID, req *dto.GenerateKeywordsRequest) (*dto.WorkflowResponse, error)
	TestCount(ctx context.Context, userId, id uuid.UUID, req *dto.CountRequest) (*dto.WorkflowResponse, error)
	RecordCount(ctx context.Context, userId, id uuid.UUID, req *dto.RecordCountRequest) (*dto.WorkflowResponse, error)
	Optimize(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)
	Search(ctx context.Context, userId, id uuid.UUID, req *dto.SearchRequest) (*dto.WorkflowResponse, error)
	GenerateDiscriminator(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)
	Filter(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)

	AddFeature(ctx context.Context, userId, id uuid.UUID, req *dto.AddFeatureRequest) (*dto.WorkflowResponse, error)
	RemovePendingFeature(ctx context.Context, userId, id uuid.UUID, featureId string) (*dto.WorkflowResponse, error)
	RemoveAppliedFeature(ctx context.Context, userId, id uuid.UUID, featureId string) (*dto.WorkflowResponse, error)
	ExtractFeatures(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error)

	UpdateArtifacts(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateArtifactsRequest) (*dto.WorkflowResponse, error)
	SetSources(ctx context.Context, userId, id uuid.UUID, req *dto.SourcesRequest) (*dto.WorkflowResponse, error)
	StepBack(ctx context.Context, userId, id uuid.UUID, req *dto.StepBackRequest) (*dto.WorkflowResponse, error)

	ListRuns(ctx context.Context, userId uuid.UUID, req *dto.ListRunsRequest) ([]*dto.RunResponse, error)
	GetSources(ctx context.Context, userId uuid.UUID) (*dto.SourcesResponse, error)
	SaveSources(ctx context.Context, userId uuid.UUID, req *dto.SourcesRequest) (*dto.SourcesResponse, error)
}

type smartSearchService struct {
	gateway          smartsearch.Gateway
	workflows        *memory.WorkflowRepository
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	recorder         *metrics.Recorder
	logger           logger.ILogger
	defaultSources   []string
	clock            func() time.Time
}

func NewSmartSearchService(
	gateway smartsearch.Gateway,
	workflows *memory.WorkflowRepository,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	recorder *metrics.Recorder,
	logger logger.ILogger,
	defaultSources []string,
) ISmartSearchService {
	if len(defaultSources) == 0 {
		defaultSources = smartsearch.DefaultSources
	}
	return &smartSearchService{
		gateway:          gateway,
		workflows:        workflows,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		recorder:         recorder,
		logger:           logger,
		defaultSources:   defaultSources,
		clock:            time.Now,
	}
}

func (s *smartSearchService) newWorkflow(ctx context.Context, userId uuid.UUID) (*smartsearch.Workflow, error) {
	return smartsearch.New(ctx, s.gateway,
		smartsearch.WithLogger(s.logger),
		smartsearch.WithSourceStore(newPreferenceSourceStore(s.uowFactory, userId, s.defaultSources)),
	)
}

func (s *smartSearchService) register(userId uuid.UUID, wf *smartsearch.Workflow) *memory.WorkflowEntry {
	entry := &memory.WorkflowEntry{
		Id:        uuid.New(),
		UserId:    userId,
		Workflow:  wf,
		CreatedAt: s.clock(),
	}
	s.workflows.Save(entry)
	return entry
}

// lookup treats another user's workflow as missing.
func (s *smartSearchService) lookup(userId, id uuid.UUID) (*memory.WorkflowEntry, error) {
	entry, ok := s.workflows.Get(id)
	if !ok || entry.UserId != userId {
		return nil, ErrWorkflowNotFound
	}
	return entry, nil
}

func (s *smartSearchService) Start(ctx context.Context, userId uuid.UUID) (*dto.WorkflowResponse, error) {
	started := s.clock()
	wf, err := s.newWorkflow(ctx, userId)
	if err != nil {
		s.observe("start", started, err)
		return nil, err
	}
	entry := s.register(userId, wf)
	s.observe("start", started, nil)

	s.logger.Info(smartSearchModule, "Workflow started", map[string]interface{}{
		"user_id": userId.String(), "workflow_id": entry.Id.String(),
	})
	return &dto.WorkflowResponse{WorkflowId: entry.Id, State: wf.Snapshot()}, nil
}

func (s *smartSearchService) Resume(ctx context.Context, userId uuid.UUID, req *dto.ResumeWorkflowRequest) (*dto.WorkflowResponse, error) {
	started := s.clock()
	wf, err := s.newWorkflow(ctx, userId)
	if err != nil {
		s.observe("resume", started, err)
		return nil, err
	}
	state, err := wf.Resume(ctx, req.SessionId)
	s.observe("resume", started, err)
	if err != nil {
		return nil, err
	}

	entry := s.register(userId, wf)
	s.afterSuccess(ctx, entry, "resume", state)
	return &dto.WorkflowResponse{WorkflowId: entry.Id, State: state}, nil
}

func (s *smartSearchService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	entry, err := s.lookup(userId, id)
	if err != nil {
		return nil, err
	}
	return &dto.WorkflowResponse{WorkflowId: entry.Id, State: entry.Workflow.Snapshot()}, nil
}

func (s *smartSearchService) ClearError(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	entry, err := s.lookup(userId, id)
	if err != nil {
		return nil, err
	}
	entry.Workflow.ClearError()
	return &dto.WorkflowResponse{WorkflowId: entry.Id, State: entry.Workflow.Snapshot()}, nil
}

// run executes one workflow action for its owner, records metrics and, on
// success, updates the run index and announces the stage.
func (s *smartSearchService) run(
	ctx context.Context,
	userId, id uuid.UUID,
	action string,
	fn func(wf *smartsearch.Workflow) (interface{}, error),
) (*dto.WorkflowResponse, error) {
	entry, err := s.lookup(userId, id)
	if err != nil {
		s.observe(action, s.clock(), err)
		return nil, err
	}

	started := s.clock()
	result, err := fn(entry.Workflow)
	s.observe(action, started, err)
	if err != nil {
		s.logger.Warn(smartSearchModule, "Action failed", map[string]interface{}{
			"workflow_id": id.String(), "action": action, "error": err.Error(),
		})
		state := entry.Workflow.Snapshot()
		s.publishProgress(ctx, dto.ProgressMessage{
			Type:       events.TypeWorkflowError,
			UserId:     entry.UserId,
			WorkflowId: entry.Id,
			SessionId:  state.SessionID,
			Action:     action,
			Stage:      state.Stage.String(),
			Error:      err.Error(),
		})
		return nil, err
	}

	state := entry.Workflow.Snapshot()
	s.afterSuccess(ctx, entry, action, state)
	return &dto.WorkflowResponse{WorkflowId: entry.Id, State: state, Result: result}, nil
}

func (s *smartSearchService) afterSuccess(ctx context.Context, entry *memory.WorkflowEntry, action string, state smartsearch.State) {
	if state.SessionID == "" {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	workflowId := entry.Id
	err := uow.SmartSearchRunRepository().Upsert(ctx, &entity.SmartSearchRun{
		UserId:     entry.UserId,
		SessionId:  state.SessionID,
		WorkflowId: &workflowId,
		Question:   state.Question,
		LastStage:  state.Stage.String(),
		Sources:    state.Sources,
	})
	if err != nil {
		s.logger.Warn(smartSearchModule, "Failed to index run", map[string]interface{}{
			"session_id": state.SessionID, "error": err.Error(),
		})
	}

	s.publishProgress(ctx, dto.ProgressMessage{
		Type:       events.TypeStageCompleted,
		UserId:     entry.UserId,
		WorkflowId: entry.Id,
		SessionId:  state.SessionID,
		Action:     action,
		Stage:      state.Stage.String(),
	})
}

func (s *smartSearchService) publishProgress(ctx context.Context, msg dto.ProgressMessage) {
	msg.OccurredAt = s.clock()
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn(smartSearchModule, "Failed to publish progress event", map[string]interface{}{
			"type": msg.Type, "session_id": msg.SessionId, "error": err.Error(),
		})
	}
}

func (s *smartSearchService) observe(action string, started time.Time, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.Observe(action, outcomeOf(err), s.clock().Sub(started))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrWorkflowNotFound), errors.Is(err, ErrFeatureNotFound):
		return metrics.OutcomeNotFound
	case smartsearch.IsValidation(err):
		return metrics.OutcomeValidation
	case smartsearch.IsPrecondition(err):
		return metrics.OutcomePrecondition
	case smartsearch.IsDuplicateQuery(err):
		return metrics.OutcomeDuplicate
	case smartsearch.IsStale(err):
		return metrics.OutcomeStale
	case smartsearch.IsGateway(err):
		return metrics.OutcomeGateway
	}
	return metrics.OutcomeError
}

func (s *smartSearchService) SubmitQuestion(ctx context.Context, userId, id uuid.UUID, req *dto.SubmitQuestionRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "submit_question", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.SubmitQuestion(ctx, req.Question)
	})
}

func (s *smartSearchService) GenerateKeywords(ctx context.Context, userId, id uuid.UUID, req *dto.GenerateKeywordsRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "generate_keywords", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.GenerateKeywords(ctx, req.Sources)
	})
}

func (s *smartSearchService) TestCount(ctx context.Context, userId, id uuid.UUID, req *dto.CountRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "test_count", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.TestCount(ctx, req.Query)
	})
}

func (s *smartSearchService) RecordCount(ctx context.Context, userId, id uuid.UUID, req *dto.RecordCountRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "test_and_record", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.TestAndRecord(ctx, req.Query)
	})
}

func (s *smartSearchService) Optimize(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "optimize", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.OptimizeAndRecord(ctx)
	})
}

func (s *smartSearchService) Search(ctx context.Context, userId, id uuid.UUID, req *dto.SearchRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "search", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.ExecuteSearch(ctx, req.Offset, req.PageSize)
	})
}

func (s *smartSearchService) GenerateDiscriminator(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "generate_discriminator", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.GenerateDiscriminator(ctx)
	})
}

func (s *smartSearchService) Filter(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "filter", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.Filter(ctx)
	})
}

func (s *smartSearchService) AddFeature(ctx context.Context, userId, id uuid.UUID, req *dto.AddFeatureRequest) (*dto.WorkflowResponse, error) {
	def := smartsearch.FeatureDefinition{
		Name:        req.Name,
		Description: req.Description,
		Type:        smartsearch.FeatureType(req.Type),
	}
	if req.Options != nil {
		def.Options = &smartsearch.ScoreOptions{Min: req.Options.Min, Max: req.Options.Max, Step: req.Options.Step}
	}
	return s.run(ctx, userId, id, "add_feature", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.AddPendingFeature(def)
	})
}

func (s *smartSearchService) RemovePendingFeature(ctx context.Context, userId, id uuid.UUID, featureId string) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "remove_pending_feature", func(wf *smartsearch.Workflow) (interface{}, error) {
		if !wf.RemovePendingFeature(featureId) {
			return nil, ErrFeatureNotFound
		}
		return nil, nil
	})
}

func (s *smartSearchService) RemoveAppliedFeature(ctx context.Context, userId, id uuid.UUID, featureId string) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "remove_applied_feature", func(wf *smartsearch.Workflow) (interface{}, error) {
		if !wf.RemoveAppliedFeature(featureId) {
			return nil, ErrFeatureNotFound
		}
		return nil, nil
	})
}

func (s *smartSearchService) ExtractFeatures(ctx context.Context, userId, id uuid.UUID) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "extract_features", func(wf *smartsearch.Workflow) (interface{}, error) {
		return wf.ExtractFeatures(ctx)
	})
}

func (s *smartSearchService) UpdateArtifacts(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateArtifactsRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "update_artifacts", func(wf *smartsearch.Workflow) (interface{}, error) {
		if req.EvidenceSpec != nil {
			if err := wf.EditEvidenceSpec(*req.EvidenceSpec); err != nil {
				return nil, err
			}
		}
		if req.Keywords != nil {
			if err := wf.EditKeywords(*req.Keywords); err != nil {
				return nil, err
			}
		}
		if req.Discriminator != nil {
			if err := wf.EditDiscriminator(*req.Discriminator); err != nil {
				return nil, err
			}
		}
		if req.Strictness != nil {
			if err := wf.SetStrictness(smartsearch.Strictness(*req.Strictness)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (s *smartSearchService) SetSources(ctx context.Context, userId, id uuid.UUID, req *dto.SourcesRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "set_sources", func(wf *smartsearch.Workflow) (interface{}, error) {
		return nil, wf.SetSources(ctx, req.Sources)
	})
}

func (s *smartSearchService) StepBack(ctx context.Context, userId, id uuid.UUID, req *dto.StepBackRequest) (*dto.WorkflowResponse, error) {
	return s.run(ctx, userId, id, "step_back", func(wf *smartsearch.Workflow) (interface{}, error) {
		target, err := smartsearch.ParseStage(req.Stage)
		if err != nil {
			return nil, &smartsearch.ValidationError{Field: "stage", Message: err.Error()}
		}
		_, err = wf.StepBack(ctx, target)
		return nil, err
	})
}

func (s *smartSearchService) ListRuns(ctx context.Context, userId uuid.UUID, req *dto.ListRunsRequest) ([]*dto.RunResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultRunsPageSize
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	runs, err := uow.SmartSearchRunRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.RecentFirst{},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.RunResponse, 0, len(runs))
	for _, run := range runs {
		result = append(result, &dto.RunResponse{
			Id:         run.Id,
			SessionId:  run.SessionId,
			WorkflowId: run.WorkflowId,
			Question:   run.Question,
			LastStage:  run.LastStage,
			Sources:    run.Sources,
			CreatedAt:  run.CreatedAt,
			UpdatedAt:  run.UpdatedAt,
		})
	}
	return result, nil
}

func (s *smartSearchService) GetSources(ctx context.Context, userId uuid.UUID) (*dto.SourcesResponse, error) {
	sources, err := newPreferenceSourceStore(s.uowFactory, userId, s.defaultSources).LoadSources(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SourcesResponse{Sources: sources}, nil
}

func (s *smartSearchService) SaveSources(ctx context.Context, userId uuid.UUID, req *dto.SourcesRequest) (*dto.SourcesResponse, error) {
	if err := smartsearch.ValidateSources(req.Sources); err != nil {
		return nil, err
	}
	if err := newPreferenceSourceStore(s.uowFactory, userId, s.defaultSources).SaveSources(ctx, req.Sources); err != nil {
		return nil, err
	}
	return &dto.SourcesResponse{Sources: req.Sources}, nil
}
