package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avelot/recyclerie/internal/database/repository"
	"github.com/avelot/recyclerie/internal/llm"
)

// DefaultBatchSize bounds how many unmapped names are sent per LLM request.
const DefaultBatchSize = 20

// CategoryMapping is one resolved source name in a proposal. The same shape
// is required of the human-approved mapping file consumed by the executor.
type CategoryMapping struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Confidence   float64 `json:"confidence"`
}

// LLMStatistics is the telemetry block of one analyze run.
type LLMStatistics struct {
	Attempted        bool    `json:"llm_attempted"`
	ModelUsed        string  `json:"llm_model_used,omitempty"`
	ProviderUsed     string  `json:"llm_provider_used,omitempty"`
	BatchesTotal     int     `json:"llm_batches_total"`
	BatchesSucceeded int     `json:"llm_batches_succeeded"`
	BatchesFailed    int     `json:"llm_batches_failed"`
	MappedCategories int     `json:"llm_mapped_categories"`
	UnmappedAfterLLM int     `json:"llm_unmapped_after_llm"`
	LastError        string  `json:"llm_last_error,omitempty"`
	AvgConfidence    float64 `json:"llm_avg_confidence"`
}

// AnalyzeStatistics aggregates validator counts, resolution counts and LLM
// telemetry.
type AnalyzeStatistics struct {
	TotalLines         int `json:"total_lines"`
	ValidLines         int `json:"valid_lines"`
	ErrorLines         int `json:"error_lines"`
	UniqueCategories   int `json:"unique_categories"`
	MappedCategories   int `json:"mapped_categories"`
	UnmappedCategories int `json:"unmapped_categories"`
	LLMStatistics
}

// Proposal is the reviewable output of Analyze: the best-effort mapping plus
// everything the pipeline could not resolve.
type Proposal struct {
	Mappings   map[string]CategoryMapping `json:"mappings"`
	Unmapped   []string                   `json:"unmapped"`
	Statistics AnalyzeStatistics          `json:"statistics"`
	Errors     []string                   `json:"errors"`
}

// LLMOnlyResult is the narrower shape of AnalyzeLLMOnly: no CSV was
// re-validated, so line counts are absent.
type LLMOnlyResult struct {
	Mappings   map[string]CategoryMapping `json:"mappings"`
	Unmapped   []string                   `json:"unmapped"`
	Statistics LLMStatistics              `json:"statistics"`
}

// AnalyzeOptions tunes one run. Zero values fall back to defaults.
type AnalyzeOptions struct {
	ConfidenceThreshold float64
	ModelID             string
}

// Analyzer composes validator, cache, fuzzy matcher and LLM client into the
// resolution pipeline. It never writes domain tables other than the cache.
type Analyzer struct {
	Categories *repository.CategoryRepo
	Cache      *repository.MappingCacheRepo
	Mapper     llm.Mapper
	Model      string
	BatchSize  int
	Log        *logrus.Logger
}

type modelSetter interface{ SetModel(string) }

// Analyze validates the export, resolves the distinct category names via
// cache, fuzzy match and LLM fallback (in that priority), and returns a
// proposal. Missing headers are fatal; row-level errors are kept in the
// proposal and processing continues.
func (a *Analyzer) Analyze(ctx context.Context, csvData []byte, opts AnalyzeOptions) (*Proposal, error) {
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	rows, report := ParseRows(csvData)
	if len(report.Statistics.MissingColumns) > 0 {
		return nil, fmt.Errorf("colonnes obligatoires manquantes: %s", strings.Join(report.Statistics.MissingColumns, ", "))
	}
	if len(rows) == 0 && len(report.Errors) > 0 && report.Statistics.TotalLines == 0 {
		return nil, fmt.Errorf("aucune ligne exploitable: %s", report.Errors[0])
	}

	categories, err := a.Categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture des catégories: %w", err)
	}
	activeByID := make(map[string]repository.Category, len(categories))
	for _, c := range categories {
		activeByID[c.ID] = c
	}

	proposal := &Proposal{
		Mappings: map[string]CategoryMapping{},
		Unmapped: []string{},
		Errors:   append([]string{}, report.Errors...),
	}
	proposal.Statistics.TotalLines = report.Statistics.TotalLines
	proposal.Statistics.ValidLines = report.Statistics.ValidLines
	proposal.Statistics.ErrorLines = report.Statistics.InvalidLines

	// Distinct raw names across valid rows, first-encounter order.
	var names []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.CategoryRaw]; ok {
			continue
		}
		seen[row.CategoryRaw] = struct{}{}
		names = append(names, row.CategoryRaw)
	}
	proposal.Statistics.UniqueCategories = len(names)

	var llmQueue []string
	for _, name := range names {
		norm := Normalize(name)

		// 1) cache
		if entry, err := a.Cache.Get(ctx, norm); err == nil && entry != nil {
			if cat, ok := activeByID[entry.CategoryID]; ok {
				proposal.Mappings[name] = CategoryMapping{
					CategoryID:   cat.ID,
					CategoryName: cat.Name,
					Confidence:   llm.ClampConfidence(entry.Confidence),
				}
				continue
			}
			// Stale entry onto an archived category: fall through and
			// re-resolve; the fresh result overwrites it.
		}

		// 2) fuzzy
		if m := MatchCategory(name, categories, threshold); m != nil {
			proposal.Mappings[name] = CategoryMapping{
				CategoryID:   m.CategoryID,
				CategoryName: m.CategoryName,
				Confidence:   m.Confidence,
			}
			a.cachePut(ctx, norm, m.CategoryID, "fuzzy", m.Confidence)
			continue
		}

		// 3) LLM fallback
		llmQueue = append(llmQueue, name)
	}

	stats, resolved := a.runLLMStage(ctx, llmQueue, categories, opts.ModelID)
	for name, m := range resolved {
		proposal.Mappings[name] = m
	}
	for _, name := range llmQueue {
		if _, ok := proposal.Mappings[name]; !ok {
			proposal.Unmapped = append(proposal.Unmapped, name)
		}
	}

	proposal.Statistics.LLMStatistics = stats
	proposal.Statistics.MappedCategories = len(proposal.Mappings)
	proposal.Statistics.UnmappedCategories = len(proposal.Unmapped)
	return proposal, nil
}

// AnalyzeLLMOnly re-runs only the LLM stage for an explicitly supplied list
// of names, typically after the operator changed the model choice.
func (a *Analyzer) AnalyzeLLMOnly(ctx context.Context, names []string, opts AnalyzeOptions) (*LLMOnlyResult, error) {
	categories, err := a.Categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture des catégories: %w", err)
	}

	stats, resolved := a.runLLMStage(ctx, names, categories, opts.ModelID)
	result := &LLMOnlyResult{
		Mappings:   resolved,
		Unmapped:   []string{},
		Statistics: stats,
	}
	for _, name := range names {
		if _, ok := resolved[name]; !ok {
			result.Unmapped = append(result.Unmapped, name)
		}
	}
	return result, nil
}

// runLLMStage drains the queue batch-by-batch, strictly sequentially. Every
// accepted suggestion must name a known active category; successes are cached
// under provider "llm-<name>". Batch failures are counted, never propagated.
func (a *Analyzer) runLLMStage(ctx context.Context, queue []string, categories []repository.Category, modelID string) (LLMStatistics, map[string]CategoryMapping) {
	stats := LLMStatistics{}
	resolved := map[string]CategoryMapping{}
	if len(queue) == 0 || a.Mapper == nil {
		stats.UnmappedAfterLLM = len(queue)
		return stats, resolved
	}

	stats.Attempted = true
	stats.ProviderUsed = a.Mapper.ProviderName()
	stats.ModelUsed = a.Model
	if modelID != "" {
		stats.ModelUsed = modelID
		if ms, ok := a.Mapper.(modelSetter); ok {
			ms.SetModel(modelID)
		}
	}

	byName := make(map[string]repository.Category, len(categories))
	var known []string
	for _, c := range categories {
		byName[Normalize(c.Name)] = c
		known = append(known, c.Name)
	}

	batchSize := a.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	provider := "llm-" + a.Mapper.ProviderName()
	var confidenceSum float64
	for start := 0; start < len(queue); start += batchSize {
		end := start + batchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]
		stats.BatchesTotal++

		suggestions, err := a.Mapper.SuggestMappings(ctx, batch, known)
		if err != nil {
			stats.BatchesFailed++
			stats.LastError = err.Error()
			a.logger().WithError(err).WithField("batch", stats.BatchesTotal).Warn("analyze: llm batch failed")
			continue
		}
		stats.BatchesSucceeded++

		for _, name := range batch {
			sug, ok := suggestions[name]
			if !ok {
				continue
			}
			cat, ok := byName[Normalize(sug.TargetName)]
			if !ok {
				a.logger().WithFields(logrus.Fields{"source": name, "target": sug.TargetName}).
					Debug("analyze: llm proposed an unknown category, discarded")
				continue
			}
			confidence := llm.ClampConfidence(sug.Confidence)
			resolved[name] = CategoryMapping{
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Confidence:   confidence,
			}
			confidenceSum += confidence
			a.cachePut(ctx, Normalize(name), cat.ID, provider, confidence)
		}
	}

	stats.MappedCategories = len(resolved)
	stats.UnmappedAfterLLM = len(queue) - len(resolved)
	if len(resolved) > 0 {
		stats.AvgConfidence = confidenceSum / float64(len(resolved))
	}
	return stats, resolved
}

func (a *Analyzer) cachePut(ctx context.Context, norm, categoryID, provider string, confidence float64) {
	if a.Cache == nil {
		return
	}
	err := a.Cache.Upsert(ctx, repository.MappingCacheEntry{
		SourceNameNormalized: norm,
		CategoryID:           categoryID,
		Provider:             provider,
		Confidence:           llm.ClampConfidence(confidence),
	})
	if err != nil {
		a.logger().WithError(err).WithField("name", norm).Warn("analyze: cache upsert failed")
	}
}

func (a *Analyzer) logger() *logrus.Logger {
	if a.Log != nil {
		return a.Log
	}
	return logrus.StandardLogger()
}
