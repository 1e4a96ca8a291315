package tool

import (
	"context"
	"sort"
	"strings"

	"github.com/coachdesk/coachdesk/agent/runtime"
	"github.com/coachdesk/coachdesk/agent/textutil"
)

// chatWindow caps how many recent direct messages feed a client's token set.
const chatWindow = 120

// Recommendation pairs a client with their single best-matching bundle.
type Recommendation struct {
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name"`
	BundleID    string `json:"bundle_id"`
	BundleTitle string `json:"bundle_title"`
	Score       int    `json:"score"`
}

// RecommendationResult is sorted by score descending. Clients without any
// positive-scoring bundle are omitted.
type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
}

func (e *Executor) recommendBundles(ctx context.Context, rc *runtime.Context, args map[string]any) (any, error) {
	trainerID := rc.ResolveTrainerID(stringArg(args, "trainer_id"))

	clients, err := rc.Clients(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	bundles, err := rc.Bundles(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	bundleSets := make([]map[string]struct{}, len(bundles))
	for i, bundle := range bundles {
		texts := []string{bundle.Title, bundle.Description}
		texts = append(texts, bundle.Tags...)
		bundleSets[i] = textutil.TokenSet(texts...)
	}

	recs := make([]Recommendation, 0, len(clients))
	for _, client := range clients {
		texts := []string{client.Notes}
		messages, err := rc.Store().MessagesWithClient(ctx, trainerID, client.ID, chatWindow)
		if err != nil {
			return nil, err
		}
		for _, msg := range messages {
			texts = append(texts, msg.Text)
		}

		clientSet := textutil.TokenSet(texts...)
		if len(clientSet) == 0 {
			continue
		}

		best := -1
		bestScore := 0
		for i := range bundles {
			// Strictly-greater comparison keeps the first-encountered
			// bundle on equal scores.
			if score := textutil.Overlap(clientSet, bundleSets[i]); score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best < 0 {
			continue
		}

		recs = append(recs, Recommendation{
			ClientID:    client.ID,
			ClientName:  strings.TrimSpace(client.Name),
			BundleID:    bundles[best].ID,
			BundleTitle: bundles[best].Title,
			Score:       bestScore,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	return RecommendationResult{Recommendations: recs}, nil
}
