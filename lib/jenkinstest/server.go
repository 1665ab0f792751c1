// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkinstest

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jenkdo/jenkdo/lib/jenkins"
	"github.com/jenkdo/jenkdo/lib/secret"
)

// Default credentials accepted by a new server.
const (
	User  = "tester"
	Token = "11d0c3f2e8a54b6b9d1c0ffee0ddba11"
)

// CrumbField is the header the server expects the crumb in.
const CrumbField = "Jenkins-Crumb"

// Class names of job types other than pipelines and folders.
const ClassFreestyle = "hudson.model.FreeStyleProject"

// Server is a fake Jenkins. Configure it before issuing requests;
// the setters are safe to call concurrently with requests.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	crumb       string
	jobs        map[string]*Job
	queue       map[int64]*queueItem
	nextQueueID int64
	scripts     map[string][]BuildScript
	validator   func(script string) []string
	console     func(script string) string
	failures    map[string][]int
	requests    []string
}

// Job is a job stored on the server.
type Job struct {
	Name            string
	Class           string
	Config          []byte
	NextBuildNumber int64
	Builds          map[int64]*Build

	// Triggers records the parameters of every accepted build request.
	Triggers []map[string]string
}

// BuildScript describes how one triggered build behaves.
type BuildScript struct {
	// Number is the build number to assign. Zero uses the job's next
	// build number.
	Number int64

	// QueuePolls is how many queue item polls report the item as still
	// waiting, with Why as the reason.
	QueuePolls int
	Why        string

	// Cancel makes the queue item report cancelled instead of starting.
	Cancel bool

	// RunningPolls is how many build status polls report building.
	RunningPolls int

	// Chunks is the console log, revealed one chunk per status poll:
	// before the first poll the first chunk is visible, after poll p
	// the first p+1. Once the build finishes all chunks are visible.
	Chunks []string

	// Result is the final build result. Empty means SUCCESS.
	Result string

	// IgnoreStart makes progressiveText always return the whole log
	// from offset zero, like a proxy that drops the query string.
	IgnoreStart bool
}

// Build is a started build.
type Build struct {
	Number  int64
	Script  BuildScript
	Polls   int
	Stopped bool
}

// building reports whether the build is still running.
func (build *Build) building() bool {
	return !build.Stopped && build.Polls <= build.Script.RunningPolls
}

// result returns the build result, empty while running.
func (build *Build) result() string {
	switch {
	case build.Stopped:
		return jenkins.ResultAborted
	case build.building():
		return ""
	case build.Script.Result == "":
		return jenkins.ResultSuccess
	default:
		return build.Script.Result
	}
}

// log returns the console text visible now.
func (build *Build) log() string {
	visible := len(build.Script.Chunks)
	if build.building() {
		visible = min(build.Polls+1, visible)
	}
	return strings.Join(build.Script.Chunks[:visible], "")
}

type queueItem struct {
	id      int64
	job     string
	params  map[string]string
	script  BuildScript
	polls   int
	number  int64
	aborted bool
}

// NewServer starts a fake Jenkins with no jobs and a crumb issuer. It
// is closed when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	server := &Server{
		crumb:       "c0ffee",
		jobs:        make(map[string]*Job),
		queue:       make(map[int64]*queueItem),
		nextQueueID: 1,
		scripts:     make(map[string][]BuildScript),
		failures:    make(map[string][]int),
	}
	server.Server = httptest.NewServer(server.router())
	t.Cleanup(server.Close)
	return server
}

// Client returns a jenkins.Client authenticated against the server.
func (s *Server) Client(t testing.TB) *jenkins.Client {
	t.Helper()
	return s.ConfiguredClient(t, jenkins.Config{})
}

// ConfiguredClient is Client with the other fields of config kept. The
// base URL and credentials are always the server's.
func (s *Server) ConfiguredClient(t testing.TB, config jenkins.Config) *jenkins.Client {
	t.Helper()
	token, err := secret.NewFromString(Token)
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	t.Cleanup(func() { token.Close() })
	config.BaseURL, config.User, config.Token = s.URL, User, token
	client, err := jenkins.NewClient(config)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client
}

// DisableCrumbs makes the crumb issuer answer 404, as on servers
// without CSRF protection.
func (s *Server) DisableCrumbs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crumb = ""
}

// AddJob stores a job directly, bypassing createItem.
func (s *Server) AddJob(name, class string, config []byte) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &Job{
		Name:            strings.Trim(name, "/"),
		Class:           class,
		Config:          config,
		NextBuildNumber: 1,
		Builds:          make(map[int64]*Build),
	}
	s.jobs[job.Name] = job
	return job
}

// AddFolder stores a folder.
func (s *Server) AddFolder(name string) {
	s.AddJob(name, jenkins.ClassFolder, []byte("<com.cloudbees.hudson.plugins.folder.Folder/>"))
}

// Job returns a snapshot of a stored job, or nil.
func (s *Server) Job(name string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[strings.Trim(name, "/")]
	if !ok {
		return nil
	}
	snapshot := *job
	snapshot.Config = append([]byte(nil), job.Config...)
	snapshot.Triggers = append([]map[string]string(nil), job.Triggers...)
	return &snapshot
}

// ScriptBuild queues the behaviour of the next build triggered for job.
// Builds triggered without a script finish immediately with SUCCESS.
func (s *Server) ScriptBuild(job string, script BuildScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.Trim(job, "/")
	s.scripts[name] = append(s.scripts[name], script)
}

// SetQueueID sets the ID given to the next queue item.
func (s *Server) SetQueueID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQueueID = id
}

// SetValidator replaces the pipeline validator. It returns the error
// messages for a script; none means valid.
func (s *Server) SetValidator(validate func(script string) []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validator = validate
}

// SetScriptConsole replaces the script console.
func (s *Server) SetScriptConsole(run func(script string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.console = run
}

// FailNext makes the next len(statuses) requests for action answer with
// those statuses instead of being served.
func (s *Server) FailNext(action string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] = append(s.failures[action], statuses...)
}

// Requests returns how many requests were made for action.
func (s *Server) Requests(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, logged := range s.requests {
		if logged == action {
			count++
		}
	}
	return count
}

// RequestLog returns every action served, in order.
func (s *Server) RequestLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.authenticate)

	router.Get("/crumbIssuer/api/json", s.handleCrumb)
	router.Get("/me/api/json", s.handleWhoAmI)
	router.Get("/queue/item/{id}/api/json", s.handleQueueItem)

	router.Group(func(mutating chi.Router) {
		mutating.Use(s.requireCrumb)
		mutating.Post("/queue/cancelItem", s.handleCancelQueueItem)
		mutating.Post("/pipeline-model-converter/validateJenkinsfile", s.handleValidate)
		mutating.Post("/scriptText", s.handleScript)
		mutating.Post("/createItem", s.handleCreateItem)
		mutating.Post("/job/*", s.handleJob)
	})
	router.Get("/job/*", s.handleJob)
	return router
}

// authenticate enforces basic auth.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, token, ok := r.BasicAuth()
		if !ok || user != User || token != Token {
			w.Header().Set("WWW-Authenticate", `Basic realm="Jenkins"`)
			http.Error(w, "Invalid password/token for user: "+user, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCrumb rejects POSTs without the issued crumb.
func (s *Server) requireCrumb(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		expected := s.crumb
		s.mu.Unlock()
		if expected != "" && r.Header.Get(CrumbField) != expected {
			http.Error(w, "No valid crumb was included in the request", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// record logs action and reports an injected failure status, if any.
// The caller holds s.mu.
func (s *Server) record(action string) int {
	s.requests = append(s.requests, action)
	pending := s.failures[action]
	if len(pending) == 0 {
		return 0
	}
	s.failures[action] = pending[1:]
	return pending[0]
}

func (s *Server) handleCrumb(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	crumb := s.crumb
	s.record("GET crumb")
	s.mu.Unlock()
	if crumb == "" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"crumb": crumb, "crumbRequestField": CrumbField})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.record("GET me")
	s.mu.Unlock()
	writeJSON(w, jenkins.User{ID: User, FullName: "Test User"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	script := r.FormValue("jenkinsfile")
	s.mu.Lock()
	status := s.record("POST validate")
	validate := s.validator
	s.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	var messages []string
	if validate != nil {
		messages = validate(script)
	}
	if len(messages) == 0 {
		writeJSON(w, map[string]any{
			"status": "ok",
			"data":   map[string]any{"result": "success"},
		})
		return
	}
	writeJSON(w, map[string]any{
		"status": "ok",
		"data": map[string]any{
			"result": "failure",
			"errors": []map[string]any{{"error": messages}},
		},
	})
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	script := r.FormValue("script")
	s.mu.Lock()
	s.record("POST scriptText")
	run := s.console
	s.mu.Unlock()
	if run == nil {
		io.WriteString(w, "Result: "+script+"\n")
		return
	}
	io.WriteString(w, run(script))
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	s.createItem(w, r, "")
}

// createItem creates r's job under parent ("" for the root).
func (s *Server) createItem(w http.ResponseWriter, r *http.Request, parent string) {
	config, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	leaf := r.URL.Query().Get("name")

	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("POST createItem"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if leaf == "" {
		badRequest(w, "Query parameter 'name' is required")
		return
	}
	name := leaf
	if parent != "" {
		name = parent + "/" + leaf
	}
	if _, exists := s.jobs[name]; exists {
		badRequest(w, fmt.Sprintf("A job already exists with the name '%s'", leaf))
		return
	}
	class, err := classOf(config)
	if err != nil {
		http.Error(w, "Failed to parse config.xml: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.jobs[name] = &Job{
		Name:            name,
		Class:           class,
		Config:          config,
		NextBuildNumber: 1,
		Builds:          make(map[int64]*Build),
	}
}

// classOf derives a job class from the root element of its config.
// Jenkins writes XML 1.1 declarations, which encoding/xml rejects, so
// the declaration is skipped.
func classOf(config []byte) (string, error) {
	document := strings.TrimSpace(string(config))
	if strings.HasPrefix(document, "<?xml") {
		if _, rest, found := strings.Cut(document, "?>"); found {
			document = rest
		}
	}
	decoder := xml.NewDecoder(strings.NewReader(document))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		if start, ok := token.(xml.StartElement); ok {
			switch start.Name.Local {
			case "flow-definition":
				return jenkins.ClassPipelineJob, nil
			case "project":
				return ClassFreestyle, nil
			default:
				return start.Name.Local, nil
			}
		}
	}
}

func (s *Server) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("GET queueItem"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	item, ok := s.queue[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	item.polls++
	wire := jenkins.QueueItem{ID: item.id}
	switch {
	case item.aborted:
		wire.Cancelled = true
	case item.number != 0:
		wire.Executable = s.executable(item)
	case item.polls <= item.script.QueuePolls:
		wire.Why = item.script.Why
		wire.Buildable = true
	case item.script.Cancel:
		item.aborted = true
		wire.Cancelled = true
	default:
		s.start(item)
		wire.Executable = s.executable(item)
	}
	writeJSON(w, wire)
}

// start turns a queue item into a build. The caller holds s.mu.
func (s *Server) start(item *queueItem) {
	job := s.jobs[item.job]
	number := item.script.Number
	if number == 0 {
		number = job.NextBuildNumber
	}
	job.NextBuildNumber = number + 1
	job.Builds[number] = &Build{Number: number, Script: item.script}
	item.number = number
}

func (s *Server) executable(item *queueItem) *jenkins.QueueExecutable {
	return &jenkins.QueueExecutable{
		Number: item.number,
		URL:    fmt.Sprintf("%s%s/%d/", s.URL, jenkins.JobPath(item.job), item.number),
	}
}

func (s *Server) handleCancelQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("POST cancelItem")
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if item, ok := s.queue[id]; ok && item.number == 0 {
		item.aborted = true
	}
	// Jenkins redirects to the queue page whether or not the item existed.
	w.WriteHeader(http.StatusNoContent)
}

// handleJob serves everything under /job/{name}/job/{name}/...
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	var names []string
	for len(segments) >= 2 && segments[0] == "job" {
		names = append(names, segments[1])
		segments = segments[2:]
	}
	name := strings.Join(names, "/")
	action := strings.Join(segments, "/")

	if number, err := strconv.ParseInt(firstSegment(action), 10, 64); err == nil {
		s.handleBuild(w, r, name, number, strings.TrimPrefix(strings.TrimPrefix(action, segments[0]), "/"))
		return
	}

	switch r.Method + " " + action {
	case "GET api/json":
		s.getJob(w, r, name)
	case "POST config.xml":
		s.updateConfig(w, r, name)
	case "POST createItem":
		s.mu.Lock()
		parent, ok := s.jobs[name]
		isFolder := ok && parent.Class == jenkins.ClassFolder
		s.mu.Unlock()
		if !isFolder {
			http.NotFound(w, r)
			return
		}
		s.createItem(w, r, name)
	case "POST doDelete":
		s.deleteJob(w, r, name)
	case "POST build", "POST buildWithParameters":
		s.trigger(w, r, name, action == "buildWithParameters")
	default:
		http.NotFound(w, r)
	}
}

func firstSegment(path string) string {
	first, _, _ := strings.Cut(path, "/")
	return first
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("GET job"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	job, ok := s.jobs[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, leaf := jenkins.SplitJobName(name)
	writeJSON(w, jenkins.Job{
		Class:           job.Class,
		Name:            leaf,
		FullName:        name,
		URL:             s.URL + jenkins.JobPath(name) + "/",
		Buildable:       job.Class != jenkins.ClassFolder,
		NextBuildNumber: job.NextBuildNumber,
	})
}

func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request, name string) {
	config, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("POST config.xml"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	job, ok := s.jobs[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	job.Config = config
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("POST doDelete"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if _, ok := s.jobs[name]; !ok {
		http.NotFound(w, r)
		return
	}
	for key := range s.jobs {
		if key == name || strings.HasPrefix(key, name+"/") {
			delete(s.jobs, key)
		}
	}
}

func (s *Server) trigger(w http.ResponseWriter, r *http.Request, name string, withParameters bool) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, err.Error())
		return
	}
	params := make(map[string]string)
	for key, values := range r.PostForm {
		params[key] = values[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.record("POST build"); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	job, ok := s.jobs[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if job.Class == jenkins.ClassFolder {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	parameterized := strings.Contains(string(job.Config), "ParametersDefinitionProperty")
	if withParameters && !parameterized {
		w.Header().Set("X-Error", fmt.Sprintf("%s is not parameterized", name))
		badRequest(w, "This build is not parameterized!")
		return
	}

	var script BuildScript
	if pending := s.scripts[name]; len(pending) > 0 {
		script = pending[0]
		s.scripts[name] = pending[1:]
	}
	job.Triggers = append(job.Triggers, params)

	id := s.nextQueueID
	s.nextQueueID++
	s.queue[id] = &queueItem{id: id, job: name, params: params, script: script}
	w.Header().Set("Location", fmt.Sprintf("%s/queue/item/%d/", s.URL, id))
	w.WriteHeader(http.StatusCreated)
}

// handleBuild serves /job/.../{number}/{action}.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request, name string, number int64, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := map[string]string{
		"GET api/json":                "GET build",
		"POST stop":                   "POST stop",
		"GET logText/progressiveText": "GET progressiveText",
	}[r.Method+" "+action]
	if key == "" {
		http.NotFound(w, r)
		return
	}
	if status := s.record(key); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	job, ok := s.jobs[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	build, ok := job.Builds[number]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch key {
	case "GET build":
		build.Polls++
		writeJSON(w, jenkins.Build{
			Number:          number,
			URL:             fmt.Sprintf("%s%s/%d/", s.URL, jenkins.JobPath(name), number),
			FullDisplayName: fmt.Sprintf("%s #%d", name, number),
			Building:        build.building(),
			Result:          build.result(),
		})
	case "POST stop":
		if build.building() {
			build.Stopped = true
		}
	case "GET progressiveText":
		start, _ := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
		text := build.log()
		if build.Script.IgnoreStart || start > int64(len(text)) {
			start = 0
		}
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		w.Header().Set("X-Text-Size", strconv.Itoa(len(text)))
		if build.building() {
			w.Header().Set("X-More-Data", "true")
		}
		io.WriteString(w, text[start:])
	}
}

func badRequest(w http.ResponseWriter, message string) {
	http.Error(w, message, http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	json.NewEncoder(w).Encode(value)
}
