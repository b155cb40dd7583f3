package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"media-backend/internal/bootstrap"
	"media-backend/internal/shared/config"
	"media-backend/internal/shared/telemetry"
)

// A warm instance reuses the adapter across invocations. A failed build is
// not cached; the next invocation tries again.
var (
	mu        sync.Mutex
	ginLambda *ginadapter.GinLambdaV2
)

func adapter() (*ginadapter.GinLambdaV2, error) {
	mu.Lock()
	defer mu.Unlock()
	if ginLambda != nil {
		return ginLambda, nil
	}

	cfg := config.Load()
	if err := telemetry.Init(cfg.Env, cfg.LogLevel); err != nil {
		telemetry.Warn("telemetry.init.failed", map[string]any{"error": err})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, err
	}
	ginLambda = ginadapter.NewV2(app.Router)
	return ginLambda, nil
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	proxy, err := adapter()
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"internal server error"}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	return proxy.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
