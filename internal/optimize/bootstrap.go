package optimize

import (
	"context"
	"math/rand/v2"
	"strings"

	"text2cypher/internal/generate"
	"text2cypher/internal/question"
)

const (
	defaultDemos     = 3
	maxProposalDraws = 16
)

// BootstrapProposer builds few-shot configs from questions the best trial
// so far answered correctly. Proposals are a pure function of Seed and the
// trial history.
type BootstrapProposer struct {
	Items []question.Item
	Demos int
	Seed  uint64
}

// Propose implements Proposer.
func (proposer BootstrapProposer) Propose(ctx context.Context, history []Trial) (generate.Config, bool, error) {
	if err := ctx.Err(); err != nil {
		return generate.Config{}, false, err
	}
	best, ok := Best(history)
	if !ok {
		return generate.Config{}, false, nil
	}
	pool := proposer.pool(best)
	if len(pool) == 0 {
		return generate.Config{}, false, nil
	}
	demos := proposer.Demos
	if demos <= 0 {
		demos = defaultDemos
	}
	if demos > len(pool) {
		demos = len(pool)
	}

	tried := make(map[string]struct{}, len(history))
	latest := history[0].Config.Version
	for _, trial := range history {
		tried[exemplarKey(trial.Config.Exemplars)] = struct{}{}
		if trial.Config.Version > latest {
			latest = trial.Config.Version
		}
	}
	rng := rand.New(rand.NewPCG(proposer.Seed, uint64(len(history))))
	for draw := 0; draw < maxProposalDraws; draw++ {
		order := rng.Perm(len(pool))
		exemplars := make([]generate.Exemplar, 0, demos)
		for _, index := range order[:demos] {
			exemplars = append(exemplars, pool[index])
		}
		if _, seen := tried[exemplarKey(exemplars)]; seen {
			continue
		}
		next := best.Config.WithExemplars(exemplars)
		next.Version = latest + 1
		return next, true, nil
	}
	return generate.Config{}, false, nil
}

// pool returns exemplars from correctly answered items in question id order.
func (proposer BootstrapProposer) pool(best Trial) []generate.Exemplar {
	texts := make(map[string]string, len(proposer.Items))
	for _, item := range proposer.Items {
		texts[item.ID] = item.Text
	}
	var pool []generate.Exemplar
	for _, record := range best.Summary.PerItem {
		text, ok := texts[record.QuestionID]
		if !record.Correct || !ok || record.Query == "" {
			continue
		}
		pool = append(pool, generate.Exemplar{Question: text, Query: record.Query})
	}
	return pool
}

func exemplarKey(exemplars []generate.Exemplar) string {
	var key strings.Builder
	for _, exemplar := range exemplars {
		key.WriteString(exemplar.Question)
		key.WriteByte(0)
		key.WriteString(exemplar.Query)
		key.WriteByte(1)
	}
	return key.String()
}
