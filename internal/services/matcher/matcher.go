package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

const (
	exactScore       = 1.0
	synonymScore     = 0.9
	minSemanticScore = 0.5
	semanticTextCap  = 2000
)

// lookupEntry maps a matchable form back to its canonical keyword
type lookupEntry struct {
	group   string
	keyword string
	pattern *regexp.Regexp
}

// Matcher matches text against the keyword taxonomy in three tiers: exact
// canonical hits, synonym hits, and AI semantic matching. Semantic matching
// only runs when the lexical tiers find nothing.
type Matcher struct {
	mu           sync.RWMutex
	exact        []lookupEntry
	synonyms     []lookupEntry
	groupsIndex  []string
	orchestrator interfaces.Orchestrator
	logger       arbor.ILogger
}

// New creates a matcher. A nil orchestrator disables the semantic tier.
func New(orchestrator interfaces.Orchestrator) *Matcher {
	return &Matcher{
		orchestrator: orchestrator,
		logger:       common.GetLogger().WithPrefix("matcher"),
	}
}

// Load rebuilds the lookup tables from the given taxonomy. Safe to call
// concurrently with Match.
func (m *Matcher) Load(groups []*models.KeywordGroup, keywords []*models.Keyword) {
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		if g.IsActive {
			groupNames[g.ID] = g.Name
		}
	}

	var exact, synonyms []lookupEntry
	var index []string

	for _, kw := range keywords {
		if !kw.IsActive {
			continue
		}
		groupName, ok := groupNames[kw.GroupID]
		if !ok {
			continue
		}

		if p := wordPattern(kw.Keyword); p != nil {
			exact = append(exact, lookupEntry{group: groupName, keyword: kw.Keyword, pattern: p})
		}
		for _, syn := range kw.Synonyms {
			if p := wordPattern(syn); p != nil {
				synonyms = append(synonyms, lookupEntry{group: groupName, keyword: kw.Keyword, pattern: p})
			}
		}
		index = append(index, groupName+":"+kw.Keyword)
	}

	m.mu.Lock()
	m.exact = exact
	m.synonyms = synonyms
	m.groupsIndex = index
	m.mu.Unlock()

	m.logger.Info().
		Int("groups", len(groupNames)).
		Int("keywords", len(exact)).
		Int("synonyms", len(synonyms)).
		Msg("Keyword lookup tables rebuilt")
}

// Match returns deduplicated results sorted by score descending. Per
// group:keyword pair only the highest-scoring hit survives.
func (m *Matcher) Match(ctx context.Context, text string) ([]models.MatchResult, error) {
	m.mu.RLock()
	exact, synonyms := m.exact, m.synonyms
	m.mu.RUnlock()

	var results []models.MatchResult

	for _, entry := range exact {
		if entry.pattern.MatchString(text) {
			results = append(results, models.MatchResult{
				Keyword:      entry.keyword,
				KeywordGroup: entry.group,
				MatchKind:    models.MatchKindExact,
				Score:        exactScore,
				MatchedText:  entry.keyword,
			})
		}
	}

	for _, entry := range synonyms {
		if entry.pattern.MatchString(text) {
			results = append(results, models.MatchResult{
				Keyword:      entry.keyword,
				KeywordGroup: entry.group,
				MatchKind:    models.MatchKindSynonym,
				Score:        synonymScore,
				MatchedText:  entry.keyword,
			})
		}
	}

	if len(results) == 0 && m.orchestrator != nil {
		semantic, err := m.matchSemantic(ctx, text)
		if err != nil {
			m.logger.Warn().Err(err).Msg("Semantic matching failed, continuing with lexical results")
		} else {
			results = append(results, semantic...)
		}
	}

	return dedupe(results), nil
}

// matchSemantic asks a model which taxonomy entries the text is about
func (m *Matcher) matchSemantic(ctx context.Context, text string) ([]models.MatchResult, error) {
	m.mu.RLock()
	index := m.groupsIndex
	m.mu.RUnlock()

	if len(index) == 0 {
		return nil, nil
	}

	sample := text
	if len(sample) > semanticTextCap {
		sample = sample[:semanticTextCap]
	}

	prompt := fmt.Sprintf(`Given the following text and keyword list, identify which keywords are semantically relevant to the text.
Even if the exact keyword doesn't appear, check if the content is about that topic.

Text:
%s

Keywords:
%s

Return a JSON array of objects with:
- "keyword": the matched keyword (format: "group:keyword")
- "score": relevance score from 0.0 to 1.0
- "reason": brief explanation

Only include keywords with score >= 0.5. Return empty array if no matches.
Return ONLY valid JSON.`, sample, strings.Join(index, ", "))

	resp, err := m.orchestrator.Request(ctx, interfaces.TaskTypeClassify, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Keyword string  `json:"keyword"`
		Score   float64 `json:"score"`
		Reason  string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(common.ExtractJSONArray(resp.Text)), &raw); err != nil {
		return nil, fmt.Errorf("parsing semantic match response: %w", err)
	}

	var results []models.MatchResult
	for _, match := range raw {
		group, keyword, ok := strings.Cut(match.Keyword, ":")
		if !ok {
			continue
		}
		score := models.ClampScore(match.Score)
		if score < minSemanticScore {
			continue
		}
		results = append(results, models.MatchResult{
			Keyword:      keyword,
			KeywordGroup: group,
			MatchKind:    models.MatchKindSemantic,
			Score:        score,
			MatchedText:  match.Reason,
		})
	}
	return results, nil
}

// dedupe keeps the highest score per group:keyword and sorts descending
func dedupe(results []models.MatchResult) []models.MatchResult {
	best := make(map[string]models.MatchResult, len(results))
	for _, r := range results {
		key := r.KeywordGroup + ":" + r.Keyword
		if existing, ok := best[key]; !ok || r.Score > existing.Score {
			best[key] = r
		}
	}

	final := make([]models.MatchResult, 0, len(best))
	for _, r := range best {
		final = append(final, r)
	}
	sort.Slice(final, func(i, j int) bool {
		if final[i].Score != final[j].Score {
			return final[i].Score > final[j].Score
		}
		return final[i].Keyword < final[j].Keyword
	})
	return final
}

// wordPattern compiles a case-insensitive whole-word pattern. Word
// boundaries are defined over Unicode letters and digits so keywords in
// any script match correctly; ASCII \b would miss non-Latin terms.
func wordPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	p, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(term) + `(?:[^\p{L}\p{N}]|$)`)
	if err != nil {
		return nil
	}
	return p
}
