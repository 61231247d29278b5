package main

import (
	"context"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/services/tez"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type searchInput struct {
	Term       string `json:"term" jsonschema:"search term"`
	Field      string `json:"field,omitempty" jsonschema:"field to search in: all, title, author, advisor, subject, id"`
	YearStart  int    `json:"year_start,omitempty" jsonschema:"earliest acceptance year"`
	YearEnd    int    `json:"year_end,omitempty" jsonschema:"latest acceptance year"`
	ThesisType string `json:"thesis_type,omitempty" jsonschema:"yuksek_lisans, doktora, tipta_uzmanlik or sanatta_yeterlik"`
	University string `json:"university,omitempty" jsonschema:"university name, in Turkish"`
	Language   string `json:"language,omitempty" jsonschema:"thesis language, in Turkish (e.g. Türkçe, İngilizce)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"cap on the number of returned records (default 20)"`
}

type searchOutput struct {
	Results []yoktez.ThesisSummary `json:"results"`
	Count   int                    `json:"count"`
}

type detailInput struct {
	ThesisId string `json:"thesis_id" jsonschema:"the numeric thesis id from a search result"`
}

type abstractOutput struct {
	ThesisId string `json:"thesis_id"`
	Abstract string `json:"abstract"`
}

type recentInput struct {
	Days       int `json:"days,omitempty" jsonschema:"how many days back to look (default 15)"`
	MaxResults int `json:"max_results,omitempty" jsonschema:"cap on the number of returned records (default 20)"`
}

type statisticsInput struct {
	University string `json:"university,omitempty" jsonschema:"restrict counts to one university"`
	Year       int    `json:"year,omitempty" jsonschema:"restrict counts to one acceptance year"`
	ThesisType string `json:"thesis_type,omitempty" jsonschema:"restrict counts to one thesis type"`
}

const defaultMaxResults = 20

func registerTools(server *mcp.Server, service tez.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_theses",
		Description: "Search the Turkish national thesis registry by term, field and filters. Returns normalized summary records.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, searchOutput, error) {
		results, err := service.Search(ctx, yoktez.SearchQuery{
			Term:       in.Term,
			Field:      yoktez.Field(in.Field),
			YearStart:  in.YearStart,
			YearEnd:    in.YearEnd,
			Type:       yoktez.ThesisType(in.ThesisType),
			University: in.University,
			Language:   in.Language,
			MaxResults: orDefault(in.MaxResults, defaultMaxResults),
		})
		if err != nil {
			return nil, searchOutput{}, err
		}
		return nil, searchOutput{Results: results, Count: len(results)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thesis_details",
		Description: "Fetch the full record for one thesis: advisor, institute, department, keywords, abstract.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in detailInput) (*mcp.CallToolResult, yoktez.ThesisDetail, error) {
		detail, err := service.GetDetails(ctx, in.ThesisId)
		if err != nil {
			return nil, yoktez.ThesisDetail{}, err
		}
		return nil, detail, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thesis_abstract",
		Description: "Fetch only the abstract text of one thesis.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in detailInput) (*mcp.CallToolResult, abstractOutput, error) {
		abstract, err := service.GetAbstract(ctx, in.ThesisId)
		if err != nil {
			return nil, abstractOutput{}, err
		}
		return nil, abstractOutput{ThesisId: in.ThesisId, Abstract: abstract}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_theses",
		Description: "List theses added to the registry in the last N days.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in recentInput) (*mcp.CallToolResult, searchOutput, error) {
		results, err := service.GetRecent(ctx, in.Days, orDefault(in.MaxResults, defaultMaxResults))
		if err != nil {
			return nil, searchOutput{}, err
		}
		return nil, searchOutput{Results: results, Count: len(results)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Aggregate thesis counts by type, year, university and language, optionally filtered.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in statisticsInput) (*mcp.CallToolResult, tez.Statistics, error) {
		stats, err := service.GetStatistics(ctx, tez.StatisticsFilter{
			University: in.University,
			Year:       in.Year,
			Type:       yoktez.ThesisType(in.ThesisType),
		})
		if err != nil {
			return nil, tez.Statistics{}, err
		}
		return nil, stats, nil
	})
}

func orDefault(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
