// Package discovery lists analysed creators and enriches them with their
// on-chain registry and token state.
package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Creator is one analysed developer from the catalog.
type Creator struct {
	Username         string   `yaml:"username" json:"username"`
	Name             string   `yaml:"name,omitempty" json:"name,omitempty"`
	DeveloperAddress string   `yaml:"developer_address" json:"developer_address"`
	TokenAddress     string   `yaml:"token_address,omitempty" json:"token_address,omitempty"`
	Analysis         Analysis `yaml:"analysis" json:"analysis"`
}

// Analysis is the assessment attached to a creator.
type Analysis struct {
	ConfidenceScore  float64          `yaml:"confidence_score" json:"confidence_score"`
	Skills           SkillsAssessment `yaml:"skills_assessment" json:"skills_assessment"`
	Market           MarketMetrics    `yaml:"market_metrics" json:"market_metrics"`
	InvestmentThesis []string         `yaml:"investment_thesis,omitempty" json:"investment_thesis,omitempty"`
	RiskFactors      []string         `yaml:"risk_factors,omitempty" json:"risk_factors,omitempty"`
	AnalyzedAt       string           `yaml:"analyzed_at,omitempty" json:"analyzed_at,omitempty"`
	GithubURL        string           `yaml:"github_url,omitempty" json:"github_url,omitempty"`
}

// SkillsAssessment lists validated and missing skills.
type SkillsAssessment struct {
	ValidatedSkills       []string `yaml:"validated_skills" json:"validated_skills"`
	MissingCriticalSkills []string `yaml:"missing_critical_skills,omitempty" json:"missing_critical_skills,omitempty"`
	SkillRelevanceScore   float64  `yaml:"skill_relevance_score" json:"skill_relevance_score"`
}

// MarketMetrics are the suggested token parameters.
type MarketMetrics struct {
	GrowthPotential       float64 `yaml:"growth_potential" json:"growth_potential"`
	SuggestedInitialPrice string  `yaml:"suggested_initial_price" json:"suggested_initial_price"`
	SuggestedTokenName    string  `yaml:"suggested_token_name" json:"suggested_token_name"`
	SuggestedTokenSymbol  string  `yaml:"suggested_token_symbol" json:"suggested_token_symbol"`
}

// Address returns the developer address.
func (c Creator) Address() common.Address {
	return common.HexToAddress(c.DeveloperAddress)
}

// SuggestedPrice returns the suggested initial price in wei, or zero.
func (c Creator) SuggestedPrice() *big.Int {
	price, ok := new(big.Int).SetString(strings.TrimSpace(c.Analysis.Market.SuggestedInitialPrice), 10)
	if !ok {
		return new(big.Int)
	}
	return price
}

// Catalog is the list of analysed creators.
type Catalog struct {
	Creators []Creator `yaml:"creators" json:"creators"`
}

// LoadCatalog reads a catalog from a .json, .yaml or .yml file.
func LoadCatalog(path string) (*Catalog, error) {
	//nolint:gosec // G304: catalog path is user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, scouterr.WithDetails(scouterr.ErrNotFound, map[string]string{"catalog": path})
		}
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data, filepath.Ext(path))
}

// ParseCatalog decodes and validates catalog data. ext selects the format;
// anything other than ".json" is read as YAML.
func ParseCatalog(data []byte, ext string) (*Catalog, error) {
	var cat Catalog
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &cat)
	} else {
		err = yaml.Unmarshal(data, &cat)
	}
	if err != nil {
		return nil, scouterr.Because(scouterr.ErrCatalogInvalid, err)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks usernames are present and unique and addresses are well formed.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Creators))
	for i, cr := range c.Creators {
		name := normalizeUsername(cr.Username)
		if name == "" {
			return invalidEntry(i, "username", "missing")
		}
		if seen[name] {
			return invalidEntry(i, "username", "duplicate "+cr.Username)
		}
		seen[name] = true

		if !common.IsHexAddress(cr.DeveloperAddress) {
			return invalidEntry(i, "developer_address", cr.DeveloperAddress)
		}
		if cr.TokenAddress != "" && !common.IsHexAddress(cr.TokenAddress) {
			return invalidEntry(i, "token_address", cr.TokenAddress)
		}
		if p := strings.TrimSpace(cr.Analysis.Market.SuggestedInitialPrice); p != "" {
			if v, ok := new(big.Int).SetString(p, 10); !ok || v.Sign() < 0 {
				return invalidEntry(i, "suggested_initial_price", p)
			}
		}
	}
	return nil
}

// Find returns the creator with username, ignoring case and a leading "@".
func (c *Catalog) Find(username string) (Creator, bool) {
	want := normalizeUsername(username)
	for _, cr := range c.Creators {
		if normalizeUsername(cr.Username) == want {
			return cr, true
		}
	}
	return Creator{}, false
}

// Search returns creators whose username, name, suggested token name or
// symbol, or any validated skill contains query, ignoring case. An empty
// query matches everything.
func (c *Catalog) Search(query string) []Creator {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := make([]Creator, 0, len(c.Creators))
	for _, cr := range c.Creators {
		if q == "" || cr.matches(q) {
			matches = append(matches, cr)
		}
	}
	return matches
}

func (c Creator) matches(q string) bool {
	fields := []string{
		c.Username,
		c.Name,
		c.Analysis.Market.SuggestedTokenName,
		c.Analysis.Market.SuggestedTokenSymbol,
	}
	fields = append(fields, c.Analysis.Skills.ValidatedSkills...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

func invalidEntry(index int, field, value string) error {
	return scouterr.WithDetails(scouterr.ErrCatalogInvalid, map[string]string{
		"entry": fmt.Sprintf("%d", index),
		"field": field,
		"value": value,
	})
}
