package main

// @title Check-in Service API
// @version 1.0
// @description Event check-in and gift allocation ledger with live dashboard analytics
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/checkin-ledger
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/checkin-ledger/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Check-in
// @tag.description Guest check-in, undo and gift changes

// @tag.name Inventory
// @tag.description Gift inventory provisioning and reconciliation

// @tag.name Analytics
// @tag.description Dashboard snapshots and change stream

// @tag.name Activity
// @tag.description Audit log and operator notes

// @tag.name Health
// @tag.description Health check endpoints
