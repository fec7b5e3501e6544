// Package rentometer drives rentometer.com's free search form to obtain four
// rent statistics per residential unit, recycling its TOR-proxied browser
// session whenever the site's per-origin query quota runs out.
package rentometer

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"rental-analyzer/browser"
	"rental-analyzer/cache"
	"rental-analyzer/models"
	"rental-analyzer/utils"
)

const (
	homeURL = "https://www.rentometer.com/"

	selAnalyze      = `[name="commit"]`
	selAddress      = "#address_unified_search_address"
	selBeds         = "#address_unified_search_bed_style"
	selBaths        = "#address_unified_search_baths"
	selResultBanner = "body > div:nth-of-type(3) > div"
	selStatBoxes    = ".box-stats"

	notEnoughResultsText = "Sorry, there are not enough results in that location to generate a valid analysis."
)

// Option values of the baths selector:
//
//	<option value="">Any</option>
//	<option value="1">1 Only</option>
//	<option value="1.5">1½ or more</option>
const (
	bathsAny         = ""
	bathsOneOnly     = "1"
	bathsOneHalfPlus = "1.5"
)

// errQuotaExhausted means the current circuit has used up its free queries,
// observed as a disabled analyze control.
var errQuotaExhausted = errors.New("free query quota exhausted for this circuit")

// BathsFilterValue maps a unit's bathroom count onto the baths filter:
// exactly one bath queries "1 Only", more than one queries "1½ or more",
// anything else falls back to "Any". Total over all float inputs.
func BathsFilterValue(baths float64) string {
	switch {
	case baths == 1:
		return bathsOneOnly
	case baths > 1:
		return bathsOneHalfPlus
	default:
		return bathsAny
	}
}

// Estimator obtains a complete EstimateCollection for a listing, consulting
// the cache first and absorbing the site's throttling and data-insufficiency
// responses.
type Estimator struct {
	store      *cache.Cache
	newSession SessionFactory
	retry      *utils.RetryConfig
	logger     *utils.Logger
}

// New creates an Estimator. retry bounds how long session acquisition keeps
// chasing an unthrottled circuit.
func New(store *cache.Cache, factory SessionFactory, retry *utils.RetryConfig, logger *utils.Logger) *Estimator {
	return &Estimator{
		store:      store,
		newSession: factory,
		retry:      retry,
		logger:     logger,
	}
}

// Estimate returns the rent estimates for every unit of the listing. On a
// cache hit no session is created. Otherwise it acquires a TOR+browser pair,
// queries each unit in order, persists whatever was collected, and returns
// the (possibly partial) collection. Unexpected failures mid-run stop the
// collection but are not returned as errors; callers judge completeness by
// the collection's contents.
func (e *Estimator) Estimate(ctx context.Context, listing *models.Listing) (*models.EstimateCollection, error) {
	cached, hit, err := e.store.Get(listing.Address)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached, nil
	}

	e.logger.Info("[rentometer] Estimating rents at %s (%d units)", listing.Address, len(listing.Units))

	col := models.NewEstimateCollection(listing.Address)

	sess, err := e.acquireUnthrottledSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	if err := e.runQueries(ctx, &sess, listing, col); err != nil {
		e.logger.Error("[rentometer] Run for %s aborted early with %d estimates collected: %v",
			listing.Address, col.Size(), err)
	}

	if !col.Empty() {
		if err := e.store.Put(col); err != nil {
			e.logger.Error("[rentometer] Failed to cache estimates for %s: %v", listing.Address, err)
		}
	}

	return col, nil
}

// acquireUnthrottledSession obtains a session pair whose analyze control is
// enabled, recycling throttled circuits. Attempts are bounded; exhaustion is
// a terminal error rather than an endless loop.
func (e *Estimator) acquireUnthrottledSession(ctx context.Context) (Session, error) {
	var sess Session

	err := e.retry.Do(ctx, "acquire-session", func() error {
		s, err := e.newSession(ctx)
		if err != nil {
			return err
		}

		page := s.Page()
		if err := page.Navigate(homeURL); err != nil {
			s.Close()
			return err
		}

		disabled, err := analyzeDisabled(page)
		if err != nil {
			s.Close()
			return err
		}
		if disabled {
			e.logger.Warn("[rentometer] Analyze control disabled on this circuit; recycling session")
			s.Close()
			return errQuotaExhausted
		}

		sess = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("[rentometer] Got a session with the analyze control enabled")
	return sess, nil
}

// runQueries iterates the listing's units in order, submitting one query per
// unit and appending the recognized statistics to col. The session pointer is
// swapped in place when a mid-run quota exhaustion forces a recycle.
func (e *Estimator) runQueries(ctx context.Context, sess *Session, listing *models.Listing, col *models.EstimateCollection) error {
	for _, unit := range listing.Units {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The quota can run out between submissions; re-check before each one.
		disabled, err := analyzeDisabled((*sess).Page())
		if err != nil {
			return err
		}
		if disabled {
			e.logger.Warn("[rentometer] Quota exhausted mid-run; recycling session before unit %+v", unit)
			(*sess).Close()
			*sess = nil
			fresh, err := e.acquireUnthrottledSession(ctx)
			if err != nil {
				return err
			}
			*sess = fresh
		}

		e.logger.Info("[rentometer] Querying unit: %.1f beds / %.1f baths", unit.Beds, unit.Baths)

		vals, err := e.queryUnit((*sess).Page(), listing.Address, unit)
		if err != nil {
			return err
		}
		if vals == nil {
			// Terminal per-unit failure: the unit keeps its place in every
			// group with a zero rent.
			for _, kind := range models.AllEstimateKinds {
				col.Add(kind, models.UnitEstimate{Unit: unit})
			}
			continue
		}

		for _, kind := range models.AllEstimateKinds {
			if rent, ok := vals[kind]; ok {
				col.Add(kind, models.UnitEstimate{Unit: unit, MonthlyRent: rent})
			}
		}
	}

	return nil
}

// queryUnit runs one estimation query, broadening the baths filter to "Any"
// once if the site reports insufficient data. A nil map with a nil error
// means even the broadened query had too few results.
func (e *Estimator) queryUnit(p Page, address string, unit models.Unit) (map[models.EstimateKind]float64, error) {
	vals, insufficient, err := e.submitQuery(p, address, unit, BathsFilterValue(unit.Baths))
	if err != nil {
		return nil, err
	}
	if !insufficient {
		return vals, nil
	}

	e.logger.Warn("[rentometer] Not enough results for %.1f/%.1f; broadening baths filter to Any",
		unit.Beds, unit.Baths)

	vals, insufficient, err = e.submitQuery(p, address, unit, bathsAny)
	if err != nil {
		return nil, err
	}
	if insufficient {
		e.logger.Error("[rentometer] Not enough results for %.1f/%.1f even with Any baths; recording zero estimates",
			unit.Beds, unit.Baths)
		return nil, nil
	}
	return vals, nil
}

// submitQuery fills the search form, submits it, and parses the result page.
// insufficient is true when the site's not-enough-results banner appeared.
func (e *Estimator) submitQuery(p Page, address string, unit models.Unit, bathsValue string) (vals map[models.EstimateKind]float64, insufficient bool, err error) {
	if err := p.SetValue(selAddress, address); err != nil {
		return nil, false, err
	}
	if err := p.SelectOption(selBeds, strconv.FormatFloat(unit.Beds, 'f', -1, 64)); err != nil {
		return nil, false, err
	}
	if err := p.SelectOption(selBaths, bathsValue); err != nil {
		return nil, false, err
	}
	if err := p.Click(selAnalyze); err != nil {
		return nil, false, err
	}

	insufficient, err = e.insufficientResults(p)
	if err != nil || insufficient {
		return nil, insufficient, err
	}

	vals, err = e.parseStats(p)
	return vals, false, err
}

// insufficientResults is the explicit probe for the not-enough-results
// banner. Absence of the banner element is the happy path, not a fault; a
// read failure on a present banner is a real error.
func (e *Estimator) insufficientResults(p Page) (bool, error) {
	txt, err := p.Text(selResultBanner)
	if errors.Is(err, browser.ErrElementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(txt, notEnoughResultsText), nil
}

// parseStats reads the stat boxes off the analysis page. Boxes with an
// unrecognized label are logged and skipped so a presentation change cannot
// take the run down; fewer than four recognized kinds is a warning, and the
// partial data is kept.
func (e *Estimator) parseStats(p Page) (map[models.EstimateKind]float64, error) {
	texts, err := p.Texts(selStatBoxes)
	if err != nil {
		return nil, err
	}

	vals := make(map[models.EstimateKind]float64)
	for _, txt := range texts {
		kind, ok := classifyStat(txt)
		if !ok {
			e.logger.Warn("[rentometer] Unexpected stat box: %q", txt)
			continue
		}
		rent, err := models.ParseDollarAmount(txt)
		if err != nil {
			e.logger.Warn("[rentometer] Could not parse %s stat box %q: %v", kind, txt, err)
			continue
		}
		vals[kind] = rent
	}

	if len(vals) < len(models.AllEstimateKinds) {
		e.logger.Warn("[rentometer] Recognized only %d of %d stat boxes", len(vals), len(models.AllEstimateKinds))
	}
	return vals, nil
}

// classifyStat maps a stat box's text onto an EstimateKind by its label.
// Percentile labels are checked first since they are the most specific.
func classifyStat(text string) (models.EstimateKind, bool) {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "25TH PERCENTILE"):
		return models.KindPercentile25, true
	case strings.Contains(upper, "75TH PERCENTILE"):
		return models.KindPercentile75, true
	case strings.Contains(upper, "MEDIAN"):
		return models.KindMedian, true
	case strings.Contains(upper, "AVERAGE"):
		return models.KindAverage, true
	}
	return "", false
}

// analyzeDisabled inspects the analyze control's disabled attribute; the
// attribute's presence alone marks the control disabled.
func analyzeDisabled(p Page) (bool, error) {
	_, has, err := p.Attribute(selAnalyze, "disabled")
	if err != nil {
		return false, err
	}
	return has, nil
}
