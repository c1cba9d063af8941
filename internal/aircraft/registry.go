package aircraft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/jorgecardleitao/private-jets-go/internal/country"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// dbCurrentURL returns the ADS-B Exchange "db-current" registry page URL for
// the given ICAO prefix.
func dbCurrentURL(prefix string) string {
	return fmt.Sprintf("https://globe.adsbexchange.com/db-current/%s.js", prefix)
}

// registryPage is the decoded shape of one db-current prefix page: a flat
// map of ICAO suffix to its raw JSON row, plus an optional "children" array of
// further prefixes to recurse into.
type registryPage map[string]json.RawMessage

// Registry fetches the ADS-B Exchange aircraft registry over HTTP and
// assembles Aircraft Snapshots from it. Grounded on the original pipeline's
// registry-extract ETL (A-F,0-9 prefix pagination with recursive children).
type Registry struct {
	httpClient *http.Client
	countries  *country.Ranges
	logger     *logger.Logger
}

// NewRegistry builds a Registry. countries is used to derive each aircraft's
// ISO 3166 country from its ICAO hex address.
func NewRegistry(httpClient *http.Client, countries *country.Ranges, log *logger.Logger) *Registry {
	return &Registry{
		httpClient: httpClient,
		countries:  countries,
		logger:     log.Named("aircraft-registry"),
	}
}

func (r *Registry) fetchPage(ctx context.Context, prefix string) (registryPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dbCurrentURL(prefix), nil)
	if err != nil {
		return nil, fmt.Errorf("registry: building request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: fetching prefix %q: %w", prefix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry: prefix %q returned status %d", prefix, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("registry: reading prefix %q body: %w", prefix, err)
	}

	var page registryPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("registry: decoding prefix %q: %w", prefix, err)
	}
	return page, nil
}

// children recursively expands the "children" key of a page into every
// descendant (prefix, page) pair, mirroring the original's recursive
// traversal of the db-current prefix tree.
func (r *Registry) children(ctx context.Context, page registryPage) ([]struct {
	prefix string
	page   registryPage
}, error) {
	raw, ok := page["children"]
	if !ok {
		return nil, nil
	}

	var prefixes []string
	if err := json.Unmarshal(raw, &prefixes); err != nil {
		return nil, fmt.Errorf("registry: decoding children list: %w", err)
	}

	var out []struct {
		prefix string
		page   registryPage
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(prefixes))

	for _, p := range prefixes {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			childPage, err := r.fetchPage(ctx, p)
			if err != nil {
				errCh <- err
				return
			}

			mu.Lock()
			out = append(out, struct {
				prefix string
				page   registryPage
			}{p, childPage})
			mu.Unlock()

			grandChildren, err := r.children(ctx, childPage)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			out = append(out, grandChildren...)
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Extract fetches the full current registry (root prefixes A-F,0-9 plus
// every recursively discovered child prefix) and returns every Aircraft it
// can fully decode. Rows missing a tail number, type designator, or model
// are dropped, matching the original's behavior.
func (r *Registry) Extract(ctx context.Context) ([]Aircraft, error) {
	type pageEntry struct {
		prefix string
		page   registryPage
	}
	var pages []pageEntry

	for _, prefix := range RootPrefixes {
		page, err := r.fetchPage(ctx, prefix)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pageEntry{prefix, page})
	}

	for _, p := range pages {
		descendants, err := r.children(ctx, p.page)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			pages = append(pages, pageEntry{d.prefix, d.page})
		}
	}

	var out []Aircraft
	for _, p := range pages {
		for suffix, raw := range p.page {
			if suffix == "children" {
				continue
			}
			var fields []*string
			if err := json.Unmarshal(raw, &fields); err != nil {
				r.logger.Warn("dropping undecodable registry row",
					logger.String("prefix", p.prefix), logger.String("suffix", suffix), logger.Error(err))
				continue
			}
			if len(fields) < 4 || fields[0] == nil || fields[1] == nil || fields[3] == nil {
				continue
			}

			icaoNumber := strings.ToLower(p.prefix + suffix)
			a := Aircraft{
				ICAONumber:     icaoNumber,
				TailNumber:     *fields[0],
				TypeDesignator: *fields[1],
				Model:          *fields[3],
			}
			if c, ok := r.countries.Lookup(icaoNumber); ok {
				a.Country = c
			}
			out = append(out, a)
		}
	}
	return out, nil
}
