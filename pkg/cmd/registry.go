package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uplix/flow/pkg/compose"
	"github.com/uplix/flow/pkg/generation"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/registry"
)

// NewRegistry binds a generation executor to every runnable node kind. Text
// nodes carry no generation step and stay unregistered.
func NewRegistry(logger *slog.Logger, client *generation.Client, composer *compose.Composer) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterExecutor(models.NodeKindImage, imageExecutor(client))
	reg.RegisterExecutor(models.NodeKindVideo, videoExecutor(client))
	reg.RegisterExecutor(models.NodeKindAudio, audioExecutor(client))
	reg.RegisterExecutor(models.NodeKindMerge, mergeExecutor(composer))

	return reg
}

func imageExecutor(client *generation.Client) registry.Executor {
	return func(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*registry.ExecutionResult, error) {
		data, ok := node.Data.(*models.ImageData)
		if !ok {
			return nil, fmt.Errorf("unexpected data record for image node %s: %T", node.ID, node.Data)
		}

		media, err := client.SubmitImage(ctx, inputs, generation.ImageParams{
			Model:        data.Model,
			Size:         data.Size,
			Quality:      data.Quality,
			Instructions: data.Instructions,
		})
		if err != nil {
			return nil, err
		}

		return &registry.ExecutionResult{Media: media}, nil
	}
}

func videoExecutor(client *generation.Client) registry.Executor {
	return func(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*registry.ExecutionResult, error) {
		data, ok := node.Data.(*models.VideoData)
		if !ok {
			return nil, fmt.Errorf("unexpected data record for video node %s: %T", node.ID, node.Data)
		}

		media, err := client.SubmitVideo(ctx, inputs, generation.VideoParams{
			Model:        data.Model,
			Size:         data.Size,
			Seconds:      data.Seconds,
			Instructions: data.Instructions,
		})
		if err != nil {
			return nil, err
		}

		return &registry.ExecutionResult{Media: media}, nil
	}
}

func audioExecutor(client *generation.Client) registry.Executor {
	return func(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*registry.ExecutionResult, error) {
		data, ok := node.Data.(*models.AudioData)
		if !ok {
			return nil, fmt.Errorf("unexpected data record for audio node %s: %T", node.ID, node.Data)
		}

		media, err := client.SubmitAudio(ctx, inputs, generation.AudioParams{
			Model:        data.Model,
			Voice:        data.Voice,
			Instructions: data.Instructions,
		})
		if err != nil {
			return nil, err
		}

		return &registry.ExecutionResult{Media: media}, nil
	}
}

func mergeExecutor(composer *compose.Composer) registry.Executor {
	return func(ctx context.Context, node *models.Node, inputs graph.ResolvedInputs) (*registry.ExecutionResult, error) {
		data, ok := node.Data.(*models.MergeData)
		if !ok {
			return nil, fmt.Errorf("unexpected data record for merge node %s: %T", node.ID, node.Data)
		}

		result, err := composer.Merge(ctx, inputs, data.Transition)
		if err != nil {
			return nil, err
		}

		return &registry.ExecutionResult{Media: &result.Media, Message: result.Message}, nil
	}
}
