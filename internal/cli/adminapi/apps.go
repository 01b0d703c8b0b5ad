package adminapi

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// maxParallelCounts bounds concurrent table count requests.
const maxParallelCounts = 8

// ProgressFunc is told how many of total items are finished. It may be
// called from several goroutines.
type ProgressFunc func(done, total int)

// AppSummary is one row of the application list.
type AppSummary struct {
	Name          string `json:"name" yaml:"name"`
	AppID         string `json:"app_id" yaml:"app_id"`
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ResourceCount int    `json:"resource_count" yaml:"resource_count"`
	TableCount    int    `json:"table_count" yaml:"table_count"`
	IsExtension   bool   `json:"is_extension" yaml:"is_extension" table:"-"`
}

// AppConfig is the configuration block of an application.
type AppConfig struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// AppDetail is the detail view of an application.
type AppDetail struct {
	AppID         string     `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Config        *AppConfig `json:"config,omitempty" yaml:"config,omitempty"`
	ResourceCount int        `json:"resource_count" yaml:"resource_count"`
	TableCount    int        `json:"table_count" yaml:"table_count"`
}

// TableInfo describes one table of an application schema.
type TableInfo struct {
	Name     string `json:"name" yaml:"name"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	RESTURL  string `json:"rest_url" yaml:"rest_url" table:"wide"`
}

// SchemaInfo is an application schema.
type SchemaInfo struct {
	Tables []TableInfo `json:"tables" yaml:"tables"`
}

// PaginatedResponse is the envelope returned with pagination=true.
type PaginatedResponse struct {
	Total int `json:"total"`
}

// DatabaseGroup is a database and its tables.
type DatabaseGroup struct {
	Database string      `json:"database" yaml:"database"`
	Tables   []TableInfo `json:"tables" yaml:"tables"`
}

// ListApps returns the non-extension applications sorted by app ID. A
// non-empty filter keeps apps whose ID contains it, case-insensitively.
func (c *Client) ListApps(ctx context.Context, filter string) ([]AppSummary, error) {
	var apps []AppSummary
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/apps", nil, &apps); err != nil {
		return nil, err
	}
	return FilterApps(apps, filter), nil
}

// FilterApps drops extensions, sorts by app ID and applies filter.
func FilterApps(apps []AppSummary, filter string) []AppSummary {
	filter = strings.ToLower(filter)
	out := make([]AppSummary, 0, len(apps))
	for _, app := range apps {
		if app.IsExtension {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(app.AppID), filter) {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out
}

// GetApp returns the detail of one application.
func (c *Client) GetApp(ctx context.Context, appID string) (*AppDetail, error) {
	var detail AppDetail
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/apps/"+url.PathEscape(appID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetSchema returns the schema of one application.
func (c *Client) GetSchema(ctx context.Context, appID string) (*SchemaInfo, error) {
	var schema SchemaInfo
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/schemas/"+url.PathEscape(appID), nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// TableCounts returns the record count of each table, keyed by table name.
// A table whose count cannot be fetched counts as 0. A session expiry
// aborts the remaining counts. progress may be nil.
func (c *Client) TableCounts(ctx context.Context, tables []TableInfo, progress ProgressFunc) (map[string]int, error) {
	counts := make([]int, len(tables))
	var finished atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCounts)
	for i, t := range tables {
		g.Go(func() error {
			var page PaginatedResponse
			err := c.gw.Do(gctx, http.MethodGet, t.RESTURL+"/?pagination=true&limit=0", nil, &page)
			if err == nil {
				counts[i] = page.Total
			}
			if n := finished.Add(1); progress != nil {
				progress(int(n), len(tables))
			}
			return sessionErr(err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]int, len(tables))
	for i, t := range tables {
		out[t.Name] = counts[i]
	}
	return out, nil
}

// GroupTablesByDatabase groups tables by database, falling back to
// fallbackDB and then "default" for tables without one. Groups are sorted
// by name, and tables within a group by name.
func GroupTablesByDatabase(tables []TableInfo, fallbackDB string) []DatabaseGroup {
	byDB := make(map[string][]TableInfo)
	for _, t := range tables {
		key := t.Database
		if key == "" {
			key = fallbackDB
		}
		if key == "" {
			key = "default"
		}
		byDB[key] = append(byDB[key], t)
	}

	groups := make([]DatabaseGroup, 0, len(byDB))
	for db, tbls := range byDB {
		sort.SliceStable(tbls, func(i, j int) bool { return tbls[i].Name < tbls[j].Name })
		groups = append(groups, DatabaseGroup{Database: db, Tables: tbls})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Database < groups[j].Database })
	return groups
}

// AppOverview is everything shown for one application.
type AppOverview struct {
	AppID        string          `json:"app_id" yaml:"app_id"`
	Detail       *AppDetail      `json:"detail" yaml:"detail"`
	Schema       *SchemaInfo     `json:"schema" yaml:"schema"`
	Counts       map[string]int  `json:"counts" yaml:"counts"`
	TotalRecords int             `json:"total_records" yaml:"total_records"`
	Databases    []DatabaseGroup `json:"databases" yaml:"databases"`
}

// AppOverview fetches detail and schema concurrently, then table counts.
// progress follows the table counts and may be nil.
func (c *Client) AppOverview(ctx context.Context, appID string, progress ProgressFunc) (*AppOverview, error) {
	ov := &AppOverview{AppID: appID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail, err := c.GetApp(gctx, appID)
		ov.Detail = detail
		return err
	})
	g.Go(func() error {
		schema, err := c.GetSchema(gctx, appID)
		ov.Schema = schema
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts, err := c.TableCounts(ctx, ov.Schema.Tables, progress)
	if err != nil {
		return nil, err
	}
	ov.Counts = counts
	for _, n := range ov.Counts {
		ov.TotalRecords += n
	}
	ov.Databases = GroupTablesByDatabase(ov.Schema.Tables, appID)
	return ov, nil
}
