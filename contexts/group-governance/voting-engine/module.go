package votingengine

import (
	"log/slog"
	"time"

	httpadapter "chamahub/contexts/group-governance/voting-engine/adapters/http"
	"chamahub/contexts/group-governance/voting-engine/adapters/memory"
	"chamahub/contexts/group-governance/voting-engine/application/commands"
	"chamahub/contexts/group-governance/voting-engine/application/queries"
	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	"chamahub/contexts/group-governance/voting-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Votes   commands.VoteUseCase
	Queries queries.VoteQueryUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Votes          ports.VoteRepository
	Ballots        ports.BallotStore
	Membership     ports.MembershipDirectory
	Authorization  ports.Authorization
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	voteUseCase := commands.VoteUseCase{
		Votes:          deps.Votes,
		Ballots:        deps.Ballots,
		Membership:     deps.Membership,
		Authorization:  deps.Authorization,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	queryUseCase := queries.VoteQueryUseCase{
		Votes:   deps.Votes,
		Ballots: deps.Ballots,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes:   voteUseCase,
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Votes:   voteUseCase,
		Queries: queryUseCase,
	}
}

func NewInMemoryModule(seed []entities.Vote, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:          store,
		Ballots:        store,
		Membership:     store,
		Authorization:  store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
