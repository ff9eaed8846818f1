package rest

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/thoas/stats"
)

// StatsFilter records the status code and response time of every request
// passing the container. The totals are served by ServeHTTP.
type StatsFilter struct {
	stats *stats.Stats
}

func NewStatsFilter() *StatsFilter {
	return &StatsFilter{stats: stats.New()}
}

func (sf *StatsFilter) Filter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	begin, recorder := sf.stats.Begin(resp.ResponseWriter)
	resp.ResponseWriter = recorder
	chain.ProcessFilter(req, resp)
	sf.stats.End(begin, stats.WithRecorder(recorder))
}

func (sf *StatsFilter) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	RespondTo(w).Success(sf.stats.Data())
}
