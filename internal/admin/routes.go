package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/ibctl/internal/auth"
	"github.com/danmuck/ibctl/internal/observability"
	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/gin-gonic/gin"
)

type statusView struct {
	State          string   `json:"state"`
	Error          string   `json:"error,omitempty"`
	ServerVersion  int      `json:"server_version"`
	ConnectionTime string   `json:"connection_time,omitempty"`
	Accounts       []string `json:"accounts"`
	Pending        int      `json:"pending"`
}

type pendingView struct {
	ID     int64  `json:"id"`
	Kind   string `json:"kind"`
	Opcode int    `json:"opcode"`
	Name   string `json:"name"`
	Age    string `json:"age"`
}

type operationView struct {
	Opcode     int    `json:"opcode"`
	Name       string `json:"name"`
	MinVersion int    `json:"min_version"`
	Feature    string `json:"feature,omitempty"`
	Cancels    bool   `json:"cancels,omitempty"`
	Supported  bool   `json:"supported"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    s.uptime(),
			"component": "ibctl-admin",
			"version":   Version,
		})
	})

	api := s.router.Group("/")
	if s.cfg.Token != "" {
		api.Use(requireToken(auth.StaticToken{Token: s.cfg.Token}))
	}

	api.GET("/metrics", gin.WrapH(observability.Handler()))

	api.GET("/ready", func(c *gin.Context) {
		st := s.src.Status()
		ready := st.State == session.StateReady
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready":  ready,
			"state":  st.String(),
			"uptime": s.uptime(),
		})
	})

	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status())
	})

	api.GET("/ledger", func(c *gin.Context) {
		items := s.src.Ledger().List()
		now := time.Now()
		out := make([]pendingView, 0, len(items))
		for _, item := range items {
			out = append(out, pendingView{
				ID:     item.ID,
				Kind:   item.Kind.String(),
				Opcode: int(item.Opcode),
				Name:   item.Name,
				Age:    now.Sub(item.SentAt).Round(time.Millisecond).String(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"pending": out})
	})

	api.GET("/operations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operations": s.operations(0)})
	})

	api.GET("/operations/:version", func(c *gin.Context) {
		v, err := strconv.Atoi(c.Param("version"))
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "version must be a positive integer"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"version": v, "operations": s.operations(v)})
	})
}

func (s *Server) status() statusView {
	st := s.src.Status()
	view := statusView{
		State:         st.String(),
		ServerVersion: s.src.ServerVersion(),
		Accounts:      s.src.ManagedAccounts(),
		Pending:       s.src.Ledger().Len(),
	}
	if view.Accounts == nil {
		view.Accounts = []string{}
	}
	if st.Err != nil {
		view.Error = st.Err.Error()
	}
	if t := s.src.ConnectionTime(); !t.IsZero() {
		view.ConnectionTime = t.Format(time.RFC3339)
	}
	return view
}

// operations lists the catalog against version, or the negotiated version
// when version is 0. With no session every operation reports unsupported.
func (s *Server) operations(version int) []operationView {
	if version == 0 {
		version = s.src.ServerVersion()
	}
	ops := s.src.Catalog().Operations()
	out := make([]operationView, 0, len(ops))
	for _, o := range ops {
		out = append(out, operationView{
			Opcode:     int(o.Opcode),
			Name:       o.Name,
			MinVersion: o.MinVersion(),
			Feature:    o.Feature(),
			Cancels:    o.Cancels(),
			Supported:  version > 0 && version >= o.MinVersion(),
		})
	}
	return out
}
