package browser

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Limits for inline script execution
const (
	MaxInlineScripts = 32
	MaxScriptRuntime = 2 * time.Second
)

// reMediaURL matches an absolute media URL embedded in markup or script text.
var reMediaURL = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:m3u8|mp4|mpd)(?:\?[^\s"'<>\\]*)?`)

// reInlineScript captures script tag attributes and body.
var reInlineScript = regexp.MustCompile(`(?is)<script([^>]*)>(.*?)</script>`)

// FindMediaURL returns the first media URL embedded in text, or "".
func FindMediaURL(text string) string {
	return reMediaURL.FindString(text)
}

// PageFetcher retrieves a page body.
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// ScriptWatcher is a lightweight stand-in for a full scripted browser: it
// fetches the page, then executes its inline scripts in a sandboxed JS VM
// whose network and DOM sinks record every URL the page tries to reach.
// The first recorded URL with a media suffix wins.
type ScriptWatcher struct {
	fetcher PageFetcher
	log     *slog.Logger
}

// NewScriptWatcher creates a watcher reading pages through fetcher.
func NewScriptWatcher(fetcher PageFetcher) *ScriptWatcher {
	return &ScriptWatcher{
		fetcher: fetcher,
		log:     slog.Default().With(slog.String("component", "scriptwatcher")),
	}
}

// LoadAndWatch implements Watcher.
func (w *ScriptWatcher) LoadAndWatch(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := w.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	html := string(body)

	if u := FindMediaURL(html); u != "" {
		return u, nil
	}

	scripts := inlineScripts(html)
	for i, script := range scripts {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		u, err := w.evalScript(script)
		if err != nil {
			w.log.Debug("inline script failed", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if u != "" {
			return u, nil
		}
	}

	// Settled with no media request observed.
	return "", nil
}

// evalScript runs one inline script in a fresh VM and returns the first
// captured media URL. Script errors are reported, not fatal.
func (w *ScriptWatcher) evalScript(script string) (string, error) {
	vm := goja.New()

	var captured []string
	if err := vm.Set("__capture", func(call goja.FunctionCall) goja.Value {
		captured = append(captured, call.Argument(0).String())
		return goja.Undefined()
	}); err != nil {
		return "", err
	}
	if _, err := vm.RunString(sandboxPrelude); err != nil {
		return "", err
	}

	watchdog := time.AfterFunc(MaxScriptRuntime, func() {
		vm.Interrupt("script runtime limit")
	})
	defer watchdog.Stop()

	_, runErr := vm.RunString(script)

	// The page config often lands in globals even when the script later
	// throws, so scan them either way.
	global := vm.GlobalObject()
	for _, key := range global.Keys() {
		if v := global.Get(key); v != nil {
			if s, ok := v.Export().(string); ok {
				captured = append(captured, s)
			}
		}
	}

	for _, s := range captured {
		if u := FindMediaURL(s); u != "" {
			return u, nil
		}
	}
	return "", runErr
}

// inlineScripts extracts the bodies of inline (non-src) script tags.
func inlineScripts(html string) []string {
	var out []string
	for _, m := range reInlineScript.FindAllStringSubmatch(html, MaxInlineScripts) {
		attrs, body := m[1], m[2]
		if strings.Contains(strings.ToLower(attrs), "src=") {
			continue
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		out = append(out, body)
	}
	return out
}

// sandboxPrelude stubs the browser surface pages commonly touch and routes
// every URL-shaped sink into __capture.
const sandboxPrelude = `
var window = this;
var self = this;
var navigator = { userAgent: "Mozilla/5.0" };
var console = { log: function () {}, warn: function () {}, error: function () {}, info: function () {} };

var location = {};
Object.defineProperty(location, "href", {
	get: function () { return ""; },
	set: function (v) { __capture(String(v)); }
});
location.assign = function (v) { __capture(String(v)); };
location.replace = function (v) { __capture(String(v)); };

function __sinkElement() {
	var el = { style: {}, appendChild: function () {}, addEventListener: function () {} };
	Object.defineProperty(el, "src", {
		get: function () { return ""; },
		set: function (v) { __capture(String(v)); }
	});
	el.setAttribute = function (k, v) { if (k === "src" || k === "href") __capture(String(v)); };
	return el;
}

var document = {
	createElement: __sinkElement,
	getElementById: function () { return __sinkElement(); },
	querySelector: function () { return __sinkElement(); },
	querySelectorAll: function () { return []; },
	addEventListener: function () {},
	head: { appendChild: function () {} },
	body: { appendChild: function () {} }
};

function fetch(u) {
	__capture(String(u));
	var p = { then: function () { return p; }, catch: function () { return p; }, finally: function () { return p; } };
	return p;
}

function XMLHttpRequest() {}
XMLHttpRequest.prototype.open = function (m, u) { __capture(String(u)); };
XMLHttpRequest.prototype.send = function () {};
XMLHttpRequest.prototype.setRequestHeader = function () {};
XMLHttpRequest.prototype.addEventListener = function () {};

function setTimeout(fn) { if (typeof fn === "function") { try { fn(); } catch (e) {} } return 0; }
function setInterval() { return 0; }
function clearTimeout() {}
function clearInterval() {}
`
