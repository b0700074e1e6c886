package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/somaedu/soma/apps/api/echo"
	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
	emailsvc "github.com/somaedu/soma/services/email"
	logsvc "github.com/somaedu/soma/services/logger"
	"github.com/somaedu/soma/storage/database"
	dummydb "github.com/somaedu/soma/storage/database/dummy"
	sqlxrepos "github.com/somaedu/soma/storage/database/sqlx"
	"github.com/somaedu/soma/storage/files"
	"github.com/somaedu/soma/storage/localstore"
)

const debugAddr = "localhost:6060"

type repos struct {
	user     user.Repository
	subject  subject.Repository
	material material.Repository
	quiz     quiz.Repository
	chat     chat.Repository
	files    material.FileStore
}

func main() {
	// =========================================================================
	// Set up Dependencies

	// set up loggers
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		rb := logsvc.NewRollbarLogger(std)
		rb.Enable(true)
		logger = rb
	}

	// set up storage: postgres-backed repos, or the in-memory fallback when
	// no database engine is configured
	rps, dbClose, err := setUpRepos()
	if err != nil {
		log.Fatalf("setting up storage: %v", err)
	}
	defer dbClose()

	// the embedded local store is optional; it powers the demo/offline mode
	if path := core.Conf.LocalStore.Path; path != "" {
		store, err := localstore.Open(path)
		if err != nil {
			log.Fatalf("opening local store: %v", err)
		}
		defer func() { _ = store.Close() }()

		if err = store.SeedDemoData(); err != nil {
			log.Fatalf("seeding local store: %v", err)
		}
		logger.Info(fmt.Sprintf("local store ready at %s", path))
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(rps.user, mailSvc)
	subSvc := subject.NewService(rps.subject)
	matSvc := material.NewService(rps.material, rps.files)
	quizSvc := quiz.NewService(rps.quiz)
	chatSvc := chat.NewService(rps.chat, chat.NewHub())

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : env %q", core.Conf.Env))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	material.RegisterValidators(validate, translator)
	quiz.RegisterValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("env").Set(core.Conf.Env)

	go func() {
		if err := http.ListenAndServe(debugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Logger:      logger,
			UserSvc:     usrSvc,
			SubjectSvc:  subSvc,
			MaterialSvc: matSvc,
			QuizSvc:     quizSvc,
			ChatSvc:     chatSvc,
			FileStore:   rps.files,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		log.Fatalf("server error: %v", err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				log.Fatalf("could not force stop server: %v", err)
			}
		}
	}
}

func setUpRepos() (repos, func(), error) {
	if core.Conf.Database.Engine != "postgres" {
		db, err := dummydb.Open()
		if err != nil {
			return repos{}, nil, err
		}
		return repos{
			user:     dummydb.NewUserRepository(db),
			subject:  dummydb.NewSubjectRepository(db),
			material: dummydb.NewMaterialRepository(db),
			quiz:     dummydb.NewQuizRepository(db),
			chat:     dummydb.NewChatRepository(db),
			files:    dummydb.NewFileStore(),
		}, func() {}, nil
	}

	db, err := setUpDB()
	if err != nil {
		return repos{}, nil, err
	}

	fileStore, err := files.NewDiskStore(core.Conf.MediaRoot, "/v1/media")
	if err != nil {
		return repos{}, nil, err
	}

	close := func() {
		if err := db.Close(); err != nil {
			log.Printf("closing database: %v", err)
		}
	}
	return repos{
		user:     sqlxrepos.NewUserRepository(db),
		subject:  sqlxrepos.NewSubjectRepository(db),
		material: sqlxrepos.NewMaterialRepository(db),
		quiz:     sqlxrepos.NewQuizRepository(db),
		chat:     sqlxrepos.NewChatRepository(db),
		files:    fileStore,
	}, close, nil
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
