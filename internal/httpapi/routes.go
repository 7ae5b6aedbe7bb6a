package httpapi

// setupRoutes wires every §6.1 endpoint plus the supplemented /shards
// and /ws surface onto s.router, matching teacher
// internal/server/server.go's setupRoutes shape: a subrouter per
// resource family, one HandleFunc per method+path pair.
func (s *Server) setupRoutes() {
	s.router.Use(RecoveryMiddleware)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(CORSMiddleware)

	s.router.HandleFunc("/ws", s.handleWS)
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/shutdown", s.handleShutdown).Methods("POST")

	api := s.router.NewRoute().Subrouter()
	api.Use(projectHeaderMiddleware)
	api.Use(s.limiters.RateLimitMiddleware)

	api.HandleFunc("/roster/register", s.handleRegisterAgent).Methods("POST")
	api.HandleFunc("/roster", s.handleListRoster).Methods("GET")
	api.HandleFunc("/roster/{id}", s.handleGetAgent).Methods("GET")
	api.HandleFunc("/roster/{id}", s.handlePatchAgent).Methods("PATCH")

	api.HandleFunc("/sites", s.handleCreateSite).Methods("POST")
	api.HandleFunc("/sites", s.handleListSites).Methods("GET")
	api.HandleFunc("/sites/{id}", s.handleGetSite).Methods("GET")
	api.HandleFunc("/sites/{id}/folios", s.handleListSiteFolios).Methods("GET")
	api.HandleFunc("/sites/{id}/folios", s.handleCreateSiteFolio).Methods("POST")

	api.HandleFunc("/folios", s.handleCreateFolio).Methods("POST")
	api.HandleFunc("/folios", s.handleListFolios).Methods("GET")
	api.HandleFunc("/folios/search", s.handleSearchFolios).Methods("GET")
	api.HandleFunc("/folios/{id}", s.handleGetFolio).Methods("GET")
	api.HandleFunc("/folios/{id}", s.handlePatchFolio).Methods("PATCH")

	api.HandleFunc("/threads", s.handleCreateThread).Methods("POST")
	api.HandleFunc("/threads", s.handleListThreads).Methods("GET")
	api.HandleFunc("/inbox", s.handleGetInbox).Methods("GET")
	api.HandleFunc("/threads/{id}/read", s.handleMarkThreadRead).Methods("PATCH")

	api.HandleFunc("/logs", s.handleAddLogs).Methods("POST")
	api.HandleFunc("/logs/streams", s.handleListLogStreams).Methods("GET")
	api.HandleFunc("/logs/{stream}", s.handleGetLogStream).Methods("GET")

	api.HandleFunc("/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/activity", s.handleActivity).Methods("GET")

	api.HandleFunc("/screenshots", s.handleAddScreenshot).Methods("POST")
	api.HandleFunc("/screenshots", s.handleListScreenshots).Methods("GET")
	api.HandleFunc("/screenshots/{id}", s.handleGetScreenshot).Methods("GET")
	api.HandleFunc("/screenshots/{id}/metadata", s.handleGetScreenshotMetadata).Methods("GET")

	api.HandleFunc("/yields", s.handleCreateYield).Methods("POST")
	api.HandleFunc("/yields/chain/{chain_id}", s.handleGetYieldChain).Methods("GET")
	api.HandleFunc("/yields/status/{status}", s.handleGetYieldsByStatus).Methods("GET")
	api.HandleFunc("/yields/agent/{agent_id}", s.handleGetAgentYields).Methods("GET")
	api.HandleFunc("/yields/{sack_id}", s.handleGetYield).Methods("GET")

	api.HandleFunc("/naming/generate", s.handleGenerateName).Methods("POST")

	api.HandleFunc("/shards", s.handleSpawnShard).Methods("POST")
	api.HandleFunc("/shards", s.handleListShards).Methods("GET")
	api.HandleFunc("/shards/review-queue", s.handleGetReviewQueue).Methods("GET")
	api.HandleFunc("/shards/{name}", s.handleGetShardStatus).Methods("GET")
	api.HandleFunc("/shards/{name}/diff", s.handleGetShardDiff).Methods("GET")
	api.HandleFunc("/shards/{name}/drift", s.handleGetShardDrift).Methods("GET")
	api.HandleFunc("/shards/{name}/merge", s.handleMergeShard).Methods("POST")
	api.HandleFunc("/shards/{name}/cleanup", s.handleCleanupShard).Methods("POST")
	api.HandleFunc("/shards/{name}/graft", s.handleGraftShard).Methods("POST")
	api.HandleFunc("/shards/{name}/graft-chain", s.handleGetGraftChain).Methods("GET")
}
