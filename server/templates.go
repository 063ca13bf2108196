package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"price": func(v float64) string {
		return fmt.Sprintf("€%.2f", v)
	},
	"lower": strings.ToLower,
	"shortID": func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	},
}

// Renderer holds the parsed page templates. It serves the embedded set by
// default; in DEV it can watch an on-disk directory and reparse on change.
type Renderer struct {
	mu   sync.RWMutex
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named page template into a buffer first, so a template
// error never leaves a half-written response body.
func (rd *Renderer) Render(w io.Writer, name string, data any) error {
	rd.mu.RLock()
	tmpl := rd.tmpl
	rd.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// WatchDir reparses templates from dir whenever its contents change.
// Reloads are debounced; a parse failure keeps the previous set.
func (rd *Renderer) WatchDir(dir string) error {
	if err := rd.reloadFrom(dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	reload := make(chan struct{}, 1)
	go rd.scheduleReload(dir, reload)
	go handleWatcher(watcher, reload)
	return nil
}

func (rd *Renderer) reloadFrom(dir string) error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseGlob(dir + "/*.html")
	if err != nil {
		return err
	}

	rd.mu.Lock()
	rd.tmpl = tmpl
	rd.mu.Unlock()
	return nil
}

func (rd *Renderer) scheduleReload(dir string, reload <-chan struct{}) {
	var timer *time.Timer
	var c <-chan time.Time
	duration := 500 * time.Millisecond
	for {
		select {
		case _, ok := <-reload:
			if !ok {
				return
			}
			if timer != nil {
				timer.Reset(duration)
			} else {
				timer = time.NewTimer(duration)
				c = timer.C
			}

		case <-c:
			c = nil
			timer = nil
			if err := rd.reloadFrom(dir); err != nil {
				log.Warn().Err(err).Msg("template reload failed, keeping previous set")
			} else {
				log.Debug().Str("dir", dir).Msg("templates reloaded")
			}
		}
	}
}

func handleWatcher(watcher *fsnotify.Watcher, reload chan<- struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write | fsnotify.Remove | fsnotify.Create) {
				select {
				case reload <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("template watcher error")
		}
	}
}
