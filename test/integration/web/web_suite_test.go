// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package web_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/formgate/internal/observability"
	"github.com/holomush/formgate/internal/web"
)

func TestWebIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Web Forms Integration Suite")
}

// testEnv holds the running server for the suite.
type testEnv struct {
	server  *web.Server
	metrics *observability.Metrics
	baseURL string
}

var env *testEnv

var _ = BeforeSuite(func() {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	handler, err := web.NewHandler(web.WithMetrics(metrics))
	Expect(err).NotTo(HaveOccurred())

	server := web.NewServer("127.0.0.1:0", handler, nil)
	_, err = server.Start(context.Background())
	Expect(err).NotTo(HaveOccurred())

	env = &testEnv{
		server:  server,
		metrics: metrics,
		baseURL: "http://" + server.Addr(),
	}
})

var _ = AfterSuite(func() {
	if env != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(env.server.Stop(ctx)).To(Succeed())
	}
})
