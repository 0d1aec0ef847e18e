package api

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/moyoez/fbxcast/api/controllers"
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/cast"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/tool"
)

const (
	BasePath        = "/api/fbxcast/v1"
	RequestIDHeader = "X-Request-Id"
)

// Server is the local control API a UI polls to drive pairing and casting.
type Server struct {
	port     int
	protocol string
	engine   *gin.Engine
	server   *http.Server
	mu       sync.RWMutex
}

// Deps are the components the routes act on.
type Deps struct {
	Auth      *auth.Authenticator
	Cast      *cast.Controller
	NotifyURL string
	Probe     controllers.ProbeFunc // nil uses discovery.Probe
}

// NewServer creates a new API server instance
func NewServer(port int, protocol string, deps Deps) *Server {
	if protocol != "https" {
		protocol = "http"
	}
	s := &Server{port: port, protocol: protocol}
	s.engine = s.routes(deps)
	return s
}

// ControlURL is the address announced to clients, e.g. in the QR code.
func (s *Server) ControlURL(host string) string {
	return fmt.Sprintf("%s://%s:%d%s/status", s.protocol, host, s.port, BasePath)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog())

	status := controllers.NewStatusController(deps.Auth, deps.Cast.Target)
	pair := controllers.NewPairController(deps.Auth, rate.Every(time.Second), 2)
	session := controllers.NewSessionController(deps.Auth)
	castCtrl := controllers.NewCastController(deps.Auth, deps.Cast, deps.NotifyURL)
	diag := controllers.NewDiagController(deps.Auth.Host, s.ControlURL(share.PreferredIP()), deps.Probe)

	v1 := engine.Group(BasePath)
	v1.GET("/status", status.HandleStatus)
	v1.POST("/discover", controllers.SingleFlight(controllers.ActionDiscover), status.HandleDiscover)

	v1.POST("/pair", controllers.SingleFlight(controllers.ActionHandshake), pair.HandlePair)
	v1.GET("/pair/status", controllers.SingleFlight(controllers.ActionHandshake), pair.HandlePairStatus)
	v1.GET("/token/validity", controllers.SingleFlight(controllers.ActionHandshake), pair.HandleTokenValidity)
	v1.POST("/session", controllers.SingleFlight(controllers.ActionHandshake), session.HandleSession)
	v1.POST("/logout", controllers.SingleFlight(controllers.ActionHandshake), session.HandleLogout)

	v1.GET("/receivers", castCtrl.HandleReceivers)
	v1.GET("/receivers/target", castCtrl.HandleTarget)
	v1.POST("/play", controllers.SingleFlight(controllers.ActionPlayback), castCtrl.HandlePlay)
	v1.POST("/stop", controllers.SingleFlight(controllers.ActionPlayback), castCtrl.HandleStop)

	v1.GET("/diagnostics/ping", diag.HandlePing)
	v1.GET("/qrcode", diag.HandleQRCode)
	return engine
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		tool.DefaultLogger.Debugf("%s %s -> %d in %s (request %s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString("request_id"))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting control API on %s://0.0.0.0:%d%s", s.protocol, s.port, BasePath)

	if s.protocol == "https" {
		cert, err := tool.GenerateTLSCert()
		if err != nil {
			return fmt.Errorf("failed to generate TLS certificate: %w", err)
		}
		s.mu.Lock()
		s.server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		s.mu.Unlock()
		tool.DefaultLogger.Infof("TLS certificate generated and configured for HTTPS")
		return s.server.ListenAndServeTLS("", "")
	}
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
