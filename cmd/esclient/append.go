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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharmanity/event-store-client/client"
)

func appendCmd(root *rootOptions) *cobra.Command {
	var expectedVersion int64

	cmd := &cobra.Command{
		Use:   "append <stream> <type> <json>",
		Short: "Append one JSON event to a stream",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := []byte(args[2])
			if !json.Valid(data) {
				return fmt.Errorf("event data is not valid JSON")
			}

			conn, err := root.connection()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			if err := conn.Connect(ctx); err != nil {
				return err
			}

			event := client.NewEventData(args[1], true, data, nil)
			result, err := conn.AppendToStream(ctx, args[0], expectedVersion, []client.EventData{event}, nil).Await(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appended %s, next expected version %d\n", event.EventID, result.NextExpectedVersion)
			return nil
		},
	}

	cmd.Flags().Int64Var(&expectedVersion, "expected-version", client.ExpectedVersionAny, "expected version of the stream, -2 disables the check")

	return cmd
}
