package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
	"github.com/nakomis/nakom-admin/pkg/api/business/analytics"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var ErrUnknownAction = errors.New("unknown action")

type payload struct {
	Action string `json:"action"`
	Params struct {
		Type          string   `json:"type"`
		Threshold     *float64 `json:"threshold"`
		Limit         *int     `json:"limit"`
		StagingBucket string   `json:"stagingBucket"`
		StagingKey    string   `json:"stagingKey"`
		Days          int      `json:"days"`
		IP            string   `json:"ip"`
		Reason        string   `json:"reason"`
	} `json:"params"`
}

func main() {
	baseCtx := context.Background()

	appContext, err := appcontext.NewAppContext(baseCtx)
	if err != nil {
		panic(err)
	}

	err = appContext.Run(baseCtx)
	if err != nil {
		panic(err)
	}

	var input payload

	if len(os.Args) > 1 {
		err = json.Unmarshal([]byte(os.Args[1]), &input)
	} else {
		err = json.NewDecoder(os.Stdin).Decode(&input)
	}

	if err != nil {
		panic(err)
	}

	result, err := dispatch(baseCtx, appContext, input)
	if err != nil {
		panic(err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		panic(err)
	}

	fmt.Println(string(out))
}

func dispatch(ctx context.Context, appContext *appcontext.AppContext, input payload) (any, error) { //nolint:cyclop
	switch input.Action {
	case "status":
		return appContext.Lifecycle.Status(ctx)
	case "start":
		return appContext.Lifecycle.Start(ctx)
	case "stop":
		return appContext.Lifecycle.Stop(ctx)
	case "extend-timer":
		return appContext.Lifecycle.ExtendTimer(ctx)
	case "snapshot":
		return appContext.Lifecycle.Snapshot(ctx)
	case "snapshots":
		return appContext.Lifecycle.Snapshots(ctx)
	case "restore":
		return appContext.Lifecycle.Restore(ctx)
	case "timer":
		return appContext.Lifecycle.Timer(ctx)

	case "import-generate":
		result, err := appContext.Importing.Generate(ctx)
		if err != nil {
			return nil, err
		}

		if result == nil {
			return map[string]int{"imported": 0}, nil
		}

		return result, nil

	case "import-execute":
		return appContext.Importing.Execute(ctx, importing.ExecutePayload{
			StagingBucket: input.Params.StagingBucket,
			StagingKey:    input.Params.StagingKey,
		})

	case "query":
		return appContext.Analytics.Query(ctx, input.Params.Type, analytics.QueryParams{
			Threshold: input.Params.Threshold,
			Limit:     input.Params.Limit,
		})

	case "logs-mine":
		return appContext.LogMining.Mine(ctx, input.Params.Days)

	case "blocklist-list":
		return appContext.Blocklist.List(ctx)
	case "blocklist-add":
		return appContext.Blocklist.Add(ctx, input.Params.IP, input.Params.Reason)
	case "blocklist-remove":
		return appContext.Blocklist.Remove(ctx, input.Params.IP)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, input.Action)
	}
}
