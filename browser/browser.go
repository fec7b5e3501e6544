// Package browser owns a headless Chrome instance whose traffic is routed
// through a SOCKS proxy bound at launch time. It exposes the small set of DOM
// primitives the rent query pipeline needs; a missing node surfaces as
// ErrElementNotFound so callers can use element presence as routing logic.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"rental-analyzer/utils"
)

// ErrElementNotFound means a targeted DOM node does not exist on the current
// page. Some occurrences are expected and benign (e.g. the absence of an
// error banner); callers decide.
var ErrElementNotFound = errors.New("element not found")

// Browser is a live proxied Chrome session.
type Browser struct {
	ctx           context.Context
	cancelCtx     context.CancelFunc
	cancelAlloc   context.CancelFunc
	actionTimeout time.Duration
	settle        time.Duration
	logger        *utils.Logger
	closed        bool
}

// Open launches Chrome with all traffic proxied through the SOCKS port.
// The proxy binding is fixed for the life of the browser, which is why a
// browser and its TOR process are only ever torn down and recreated as a
// pair. actionTimeout bounds each DOM query; settle is the post-navigation
// wait before the page is considered interactive.
func Open(chromeBin string, proxyPort int, actionTimeout, settle time.Duration, logger *utils.Logger) (*Browser, error) {
	bin := chromeBin
	if bin == "" {
		bin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", bin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.ProxyServer(fmt.Sprintf("socks5://127.0.0.1:%d", proxyPort)),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Force the browser process up now so a broken proxy/config fails here
	// rather than on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	return &Browser{
		ctx:           ctx,
		cancelCtx:     cancelCtx,
		cancelAlloc:   cancelAlloc,
		actionTimeout: actionTimeout,
		settle:        settle,
		logger:        logger,
	}, nil
}

// Navigate loads a URL and waits the settle interval so the DOM is
// interactive. It does not wait for full resource load.
func (b *Browser) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(b.ctx, b.actionTimeout+b.settle+30*time.Second)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.settle),
	)
	if err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// eval runs a JS expression with the per-action timeout.
func (b *Browser) eval(js string, out interface{}) error {
	ctx, cancel := context.WithTimeout(b.ctx, b.actionTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(js, out))
}

// Exists reports whether a node matching the CSS selector is present.
func (b *Browser) Exists(sel string) (bool, error) {
	var found bool
	err := b.eval(fmt.Sprintf(`document.querySelector(%q) !== null`, sel), &found)
	if err != nil {
		return false, fmt.Errorf("browser: exists %q: %w", sel, err)
	}
	return found, nil
}

// Attribute returns an attribute's value on the first node matching the
// selector. ok is false when the node exists but lacks the attribute.
func (b *Browser) Attribute(sel, attr string) (string, bool, error) {
	var res struct {
		Found bool   `json:"found"`
		Has   bool   `json:"has"`
		Value string `json:"value"`
	}
	js := fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%q);
			if (!el) return {found: false, has: false, value: ''};
			var v = el.getAttribute(%q);
			return {found: true, has: v !== null, value: v === null ? '' : v};
		})()
	`, sel, attr)
	if err := b.eval(js, &res); err != nil {
		return "", false, fmt.Errorf("browser: attribute %q of %q: %w", attr, sel, err)
	}
	if !res.Found {
		return "", false, fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return res.Value, res.Has, nil
}

// SetValue fills a form field and fires an input event.
func (b *Browser) SetValue(sel, value string) error {
	var found bool
	js := fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%q);
			if (!el) return false;
			el.value = %q;
			el.dispatchEvent(new Event('input', {bubbles: true}));
			return true;
		})()
	`, sel, value)
	if err := b.eval(js, &found); err != nil {
		return fmt.Errorf("browser: set value of %q: %w", sel, err)
	}
	if !found {
		return fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return nil
}

// SelectOption picks an option of a <select> by its value attribute and
// fires a change event.
func (b *Browser) SelectOption(sel, value string) error {
	var found bool
	js := fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%q);
			if (!el) return false;
			el.value = %q;
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		})()
	`, sel, value)
	if err := b.eval(js, &found); err != nil {
		return fmt.Errorf("browser: select option %q of %q: %w", value, sel, err)
	}
	if !found {
		return fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return nil
}

// Click clicks the first node matching the selector, then waits the settle
// interval since clicks here typically trigger a page transition.
func (b *Browser) Click(sel string) error {
	var found bool
	js := fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%q);
			if (!el) return false;
			el.click();
			return true;
		})()
	`, sel)
	if err := b.eval(js, &found); err != nil {
		return fmt.Errorf("browser: click %q: %w", sel, err)
	}
	if !found {
		return fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.settle+time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Sleep(b.settle)); err != nil {
		b.logger.Debug("[browser] Post-click settle for %q: %v", sel, err)
	}
	return nil
}

// Text returns the visible text of the first node matching the selector.
func (b *Browser) Text(sel string) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	js := fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%q);
			if (!el) return {found: false, text: ''};
			return {found: true, text: el.innerText};
		})()
	`, sel)
	if err := b.eval(js, &res); err != nil {
		return "", fmt.Errorf("browser: text of %q: %w", sel, err)
	}
	if !res.Found {
		return "", fmt.Errorf("browser: %q: %w", sel, ErrElementNotFound)
	}
	return res.Text, nil
}

// Texts returns the visible text of every node matching the selector. An
// empty slice is not an error: zero matches is a legitimate answer.
func (b *Browser) Texts(sel string) ([]string, error) {
	var texts []string
	js := fmt.Sprintf(`
		(function() {
			var out = [];
			var els = document.querySelectorAll(%q);
			for (var i = 0; i < els.length; i++) {
				out.push(els[i].innerText);
			}
			return out;
		})()
	`, sel)
	if err := b.eval(js, &texts); err != nil {
		return nil, fmt.Errorf("browser: texts of %q: %w", sel, err)
	}
	return texts, nil
}

// Close releases the browser instance. Idempotent.
func (b *Browser) Close() {
	if b == nil || b.closed {
		return
	}
	b.closed = true
	b.logger.Info("[browser] Closing browser")
	b.cancelCtx()
	b.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
