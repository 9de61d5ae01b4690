package stats

import (
	"net/http"
	_ "net/http/pprof"
)

func StartHttpPProf(bind string) {
	go func() {
		log.Warn(http.ListenAndServe(bind, nil))
	}()
}
