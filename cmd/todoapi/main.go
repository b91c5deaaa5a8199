package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/gorilla/mux"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	"github.com/ichigozero/todokit/db"
	todogorm "github.com/ichigozero/todokit/todosvc/db/gorm"
	"github.com/ichigozero/todokit/todosvc/pkg/todoendpoint"
	"github.com/ichigozero/todokit/todosvc/pkg/todoservice"
	"github.com/ichigozero/todokit/todosvc/pkg/todotransport"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/ichigozero/todokit/usersvc/pkg/userendpoint"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/joho/godotenv"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twinj/uuid"
	"golang.org/x/crypto/bcrypt"
	libgorm "gorm.io/gorm"
)

func main() {
	// A missing .env file is fine; the environment and flags still apply.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("todoapi", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8080"),
			"HTTP listen address",
		)
		databaseDriver = fs.String(
			"database.driver",
			getEnv("DATABASE_DRIVER", db.DriverSQLite),
			"Database driver (sqlite, postgres, mysql)",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database URL",
		)
		accessSecret = fs.String(
			"access.secret",
			getEnv("ACCESS_SECRET", "access-secret"),
			"HS256 secret for access tokens",
		)
		accessTTL = fs.Duration(
			"access.ttl",
			getEnvAsDuration("ACCESS_TTL", authservice.AccessTokenExpiry()),
			"access token lifetime",
		)
		bcryptCost = fs.Int(
			"bcrypt.cost",
			getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
			"bcrypt cost of stored password hashes",
		)
		consulAddr = fs.String(
			"consul.addr",
			getEnv("CONSUL_ADDR", ""),
			"Consul agent address; registration is skipped when empty",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	database, err := db.Open(*databaseDriver, *databaseURL)
	if err != nil {
		logger.Log("during", "Open", "driver", *databaseDriver, "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		logger.Log("during", "Migrate", "err", err)
		os.Exit(1)
	}

	fieldKeys := []string{"method"}

	userInstruments := userservice.InstrumentingMiddleware(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "user_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "user_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys),
	)

	todoInstruments := todoservice.InstrumentingMiddleware(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "todo_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "todo_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys),
	)

	tokenizer := authservice.NewTokenizer([]byte(*accessSecret), *accessTTL)

	r := mux.NewRouter()
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	r.PathPrefix("/").Handler(newHTTPHandler(database, tokenizer, *bcryptCost, userInstruments, todoInstruments, logger))

	var registrar *consulsd.Registrar
	if *consulAddr != "" {
		consulConfig := api.DefaultConfig()
		consulConfig.Address = *consulAddr
		consulClient, err := api.NewClient(consulConfig)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}

		host, port, err := net.SplitHostPort(*httpAddr)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if host == "" {
			host = "localhost"
		}

		p, _ := strconv.Atoi(port)
		asr := &api.AgentServiceRegistration{
			ID:      uuid.NewV4().String(),
			Name:    "todoapi",
			Address: host,
			Port:    p,
		}

		registrar = consulsd.NewRegistrar(consulsd.NewClient(consulClient), asr, logger)
		registrar.Register()
		defer registrar.Deregister()
	}

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			if registrar != nil {
				registrar.Deregister()
			}
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

// newHTTPHandler wires the credential store, session issuer and todo
// service over database and returns the routes of the public API.
func newHTTPHandler(
	database *libgorm.DB,
	tokenizer authservice.Tokenizer,
	bcryptCost int,
	userMiddleware userservice.Middleware,
	todoMiddleware todoservice.Middleware,
	logger log.Logger,
) http.Handler {
	var userEndpoints userendpoint.Set
	{
		var service userservice.Service
		service = userservice.New(usergorm.NewUserRepository(database), bcryptCost, logger)
		service = userMiddleware(service)
		userEndpoints = userendpoint.New(service, logger)
	}

	var authHandler http.Handler
	{
		var service authservice.Service
		service = authservice.New(tokenizer, logger)
		service = authservice.ProxingMiddleware(
			userEndpoints.RegisterEndpoint,
			userEndpoints.VerifyEndpoint,
		)(service)
		authHandler = authtransport.NewHTTPHandler(authendpoint.New(service, logger), logger)
	}

	var todoHandler http.Handler
	{
		var service todoservice.Service
		service = todoservice.New(todogorm.NewTodoRepository(database), logger)
		service = todoMiddleware(service)
		todoHandler = todotransport.NewHTTPHandler(todoendpoint.New(service, logger), tokenizer, logger)
	}

	r := mux.NewRouter()
	r.Path("/register").Handler(authHandler)
	r.Path("/login").Handler(authHandler)
	r.PathPrefix("/todos").Handler(todoHandler)

	return r
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := time.ParseDuration(value); err == nil {
		return v
	}
	return fallback
}
