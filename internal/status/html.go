package status

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/winlink-canary/wlc/internal/health"
)

var pageTemplate = template.Must(template.New("status").Funcs(template.FuncMap{
	"dotClass": dotClass,
	"history":  historyLine,
	"since":    sinceLine,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="60">
<title>Winlink node health</title>
<style>
  body { font-family: sans-serif; margin: 2em; }
  table { border-collapse: collapse; }
  th, td { border: 1px solid #999; padding: 0.4em 0.8em; text-align: left; }
  th { background: #eee; }
  .dot { display: inline-block; width: 0.8em; height: 0.8em; border-radius: 50%; margin-right: 0.4em; }
  .dot.healthy { background: #2e7d32; }
  .dot.unhealthy { background: #c62828; }
  .dot.unknown { background: #9e9e9e; }
  footer { margin-top: 1.5em; color: #666; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Winlink node health</h1>
<table>
<tr><th>Node</th><th>Frequency</th><th>Gateway</th><th>Health</th><th>Recent probes</th><th>Last confirmed</th></tr>
{{range .Nodes}}<tr>
  <td>{{.Name}}</td>
  <td>{{printf "%.3f MHz" .FrequencyMHz}}</td>
  <td>{{.Peer}}</td>
  <td><span class="dot {{dotClass .Verdict}}"></span>{{.Verdict}}</td>
  <td>{{history .History}}</td>
  <td>{{since .LastConfirmed}}</td>
</tr>
{{end}}</table>
<footer>snapshot taken {{.TakenAt.UTC.Format "2006-01-02 15:04:05 UTC"}} &middot; page refreshes every minute</footer>
</body>
</html>
`))

func dotClass(v health.Verdict) string {
	switch v {
	case health.VerdictHealthy:
		return "healthy"
	case health.VerdictUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// historyLine renders the outcome window oldest first, e.g.
// "confirmed, timed_out, confirmed".
func historyLine(history []string) string {
	if len(history) == 0 {
		return "no probes yet"
	}
	return strings.Join(history, ", ")
}

func sinceLine(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, s.tracker.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("status page render failed")
	}
}
