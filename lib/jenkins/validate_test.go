// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jenkins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func validatorServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	noCrumb(mux)
	mux.HandleFunc("/pipeline-model-converter/validateJenkinsfile", func(writer http.ResponseWriter, request *http.Request) {
		if err := request.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if request.PostForm.Get("jenkinsfile") == "" {
			t.Error("jenkinsfile form field missing")
		}
		writer.Write([]byte(response))
	})
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestValidatePipelineSuccess(t *testing.T) {
	server := validatorServer(t, `{"status":"ok","data":{"result":"success"}}`)
	validation, err := newTestClient(t, server).ValidatePipeline(context.Background(), "pipeline { }")
	if err != nil {
		t.Fatalf("ValidatePipeline: %v", err)
	}
	if !validation.Valid || len(validation.Errors) != 0 {
		t.Errorf("ValidatePipeline() = %+v", validation)
	}
}

func TestValidatePipelineFailure(t *testing.T) {
	server := validatorServer(t, `{"status":"ok","data":{"result":"failure","errors":[
		{"error":"WorkflowScript: 3: Unknown stage section \"step\" @ line 3, column 5."},
		{"error":["first of two","second of two"]}
	]}}`)
	validation, err := newTestClient(t, server).ValidatePipeline(context.Background(), "pipeline { }")
	if err != nil {
		t.Fatalf("ValidatePipeline: %v", err)
	}
	want := []string{
		`WorkflowScript: 3: Unknown stage section "step" @ line 3, column 5.`,
		"first of two",
		"second of two",
	}
	if validation.Valid || !reflect.DeepEqual(validation.Errors, want) {
		t.Errorf("ValidatePipeline() = %+v", validation)
	}
}

func TestValidatePipelineFailureWithoutDetails(t *testing.T) {
	server := validatorServer(t, `{"status":"ok","data":{"result":"failure"}}`)
	validation, err := newTestClient(t, server).ValidatePipeline(context.Background(), "x")
	if err != nil {
		t.Fatalf("ValidatePipeline: %v", err)
	}
	if validation.Valid || len(validation.Errors) != 1 {
		t.Errorf("ValidatePipeline() = %+v", validation)
	}
}

func TestValidatePipelineErrorStatus(t *testing.T) {
	server := validatorServer(t, `{"status":"error","data":{"error":"No content found for 'jenkinsfile' parameter"}}`)
	if _, err := newTestClient(t, server).ValidatePipeline(context.Background(), "x"); err == nil {
		t.Fatal("expected error for status=error")
	}
}
