// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pharmanity/event-store-client/client"
)

func subscribeCmd(root *rootOptions) *cobra.Command {
	var (
		group      string
		bufferSize int
		resolve    bool
	)

	cmd := &cobra.Command{
		Use:   "subscribe <stream>",
		Short: "Print the events pushed to a stream until interrupted",
		Long: `Print the events pushed to a stream until interrupted.
Use $all to subscribe to every stream, and --group to join a persistent subscription.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := root.connection()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Connect(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dropped := make(chan error, 1)
			handler := client.HandlerFuncs{
				OnConfirmed: func(sub client.Subscription) {
					fmt.Fprintf(out, "subscribed to %s\n", args[0])
				},
				OnEvent: func(_ client.Subscription, event client.ResolvedEvent) error {
					printEvent(out, event)
					return nil
				},
				OnDropped: func(_ client.Subscription, reason client.SubscriptionDropReason, err error) {
					dropped <- fmt.Errorf("subscription dropped: %s: %w", reason, err)
				},
			}

			var sub client.Subscription
			switch {
			case group != "":
				persistent := conn.ConnectToPersistentSubscription(ctx, args[0], group, handler, bufferSize, true, nil)
				if _, err := persistent.Future().Await(ctx); err != nil {
					return err
				}
				sub = persistent
			case args[0] == "$all":
				volatile := conn.SubscribeToAll(ctx, resolve, handler, nil)
				if _, err := volatile.Future().Await(ctx); err != nil {
					return err
				}
				sub = volatile
			default:
				volatile := conn.SubscribeToStream(ctx, args[0], resolve, handler, nil)
				if _, err := volatile.Future().Await(ctx); err != nil {
					return err
				}
				sub = volatile
			}

			select {
			case <-ctx.Done():
				sub.Unsubscribe()
				<-sub.Dropped()
				return nil
			case err := <-dropped:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "persistent subscription group")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 10, "in flight events of a persistent subscription")
	cmd.Flags().BoolVar(&resolve, "resolve-links", false, "resolve link events")

	return cmd
}

func printEvent(out io.Writer, event client.ResolvedEvent) {
	recorded := event.OriginalEvent()
	if recorded == nil {
		return
	}
	fmt.Fprintf(out, "%s@%d %s %s %s\n", recorded.StreamID, recorded.EventNumber, recorded.EventType, recorded.EventID, recorded.Data)
}
