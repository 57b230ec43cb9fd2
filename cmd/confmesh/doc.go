// Package main provides the entry point for confmesh.
//
// confmesh loads application configuration from the process environment,
// local KEY=VALUE files and AWS (S3, Secrets Manager, SSM Parameter Store),
// merges it by precedence and prints or checks the result.
//
// Usage:
//
//	confmesh [global flags] command [flags]
//	confmesh -c confmesh.yaml load --save
//	confmesh -o env dump --redact
//	confmesh check --require DATABASE_URL --require PORT
//	confmesh snapshot restore -o env > .env
package main
