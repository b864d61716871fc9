package extract

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/ppiankov/claimadjudicate/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var builtinSample []byte

// Dataset is the fixed result of every stage, as stored in YAML
type Dataset struct {
	Extraction  model.ExtractionFindings  `yaml:"extraction"`
	Consistency model.ConsistencyFindings `yaml:"consistency"`
	Policy      model.PolicyFindings      `yaml:"policy"`
	Draft       model.DraftFindings       `yaml:"draft"`
}

// SampleSource replays a fixed dataset regardless of the uploaded documents
type SampleSource struct {
	data Dataset
}

// NewSampleSource returns a source backed by the built-in dataset
func NewSampleSource() (*SampleSource, error) {
	return ParseSample(builtinSample)
}

// LoadSampleFile reads a dataset from a YAML file
func LoadSampleFile(path string) (*SampleSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample file: %w", err)
	}
	return ParseSample(data)
}

// ParseSample decodes and checks a YAML dataset
func ParseSample(data []byte) (*SampleSource, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	if err := checkDataset(&ds); err != nil {
		return nil, err
	}
	return &SampleSource{data: ds}, nil
}

// ReadDocuments returns the fixed extraction findings
func (s *SampleSource) ReadDocuments(ctx context.Context, _ []model.Document) (*model.ExtractionFindings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.data.Extraction
	return &f, nil
}

// CheckConsistency returns the fixed consistency findings
func (s *SampleSource) CheckConsistency(ctx context.Context, _ []model.Document) (*model.ConsistencyFindings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.data.Consistency
	return &f, nil
}

// ApplyPolicy returns the fixed policy findings
func (s *SampleSource) ApplyPolicy(ctx context.Context, _ []model.Document) (*model.PolicyFindings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.data.Policy
	return &f, nil
}

// DraftDecision returns the fixed draft, with a private copy of the items
func (s *SampleSource) DraftDecision(ctx context.Context, _ []model.Document) (*model.DraftFindings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := s.data.Draft
	f.Result.Items = model.CloneItems(f.Result.Items)
	return &f, nil
}

func checkDataset(ds *Dataset) error {
	result := ds.Draft.Result
	if result.Patient.Name == "" {
		return fmt.Errorf("sample draft: patient name is empty")
	}
	if len(result.Items) == 0 {
		return fmt.Errorf("sample draft: no items")
	}

	seen := make(map[int]bool, len(result.Items))
	var sum int64
	for _, item := range result.Items {
		if seen[item.ID] {
			return fmt.Errorf("sample draft: duplicate item id %d", item.ID)
		}
		seen[item.ID] = true

		if item.ClaimedAmount < 0 || item.ApprovedAmount < 0 || item.ApprovedAmount > item.ClaimedAmount {
			return fmt.Errorf("sample draft: item %d amounts out of range (claimed %d, approved %d)",
				item.ID, item.ClaimedAmount, item.ApprovedAmount)
		}
		if !item.Status.Valid() {
			return fmt.Errorf("sample draft: item %d has unknown status %q", item.ID, item.Status)
		}
		sum += item.ClaimedAmount
	}

	if result.TotalClaimed != sum {
		return fmt.Errorf("sample draft: total claimed %d does not match item sum %d", result.TotalClaimed, sum)
	}
	return nil
}
