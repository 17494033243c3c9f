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

	"github.com/spf13/cobra"

	"github.com/pharmanity/event-store-client/client"
)

func readCmd(root *rootOptions) *cobra.Command {
	var (
		from     int64
		count    int
		backward bool
		resolve  bool
	)

	cmd := &cobra.Command{
		Use:   "read <stream>",
		Short: "Read a page of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := root.connection()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			if err := conn.Connect(ctx); err != nil {
				return err
			}

			read := conn.ReadStreamEventsForward
			if backward {
				read = conn.ReadStreamEventsBackward
			}
			slice, err := read(ctx, args[0], from, count, resolve, nil).Await(ctx)
			if err != nil {
				return err
			}
			if slice.Status != client.SliceReadSuccess {
				return fmt.Errorf("read %s: %s", args[0], slice.Status)
			}

			out := cmd.OutOrStdout()
			for _, event := range slice.Events {
				printEvent(out, event)
			}
			fmt.Fprintf(out, "next=%d last=%d end=%t\n", slice.NextEventNumber, slice.LastEventNumber, slice.IsEndOfStream)
			return nil
		},
	}

	cmd.Flags().Int64Var(&from, "from", client.StreamStart, "first event number, -1 reads backward from the end")
	cmd.Flags().IntVar(&count, "count", 20, "number of events to read")
	cmd.Flags().BoolVar(&backward, "backward", false, "read toward the start of the stream")
	cmd.Flags().BoolVar(&resolve, "resolve-links", false, "resolve link events")

	return cmd
}
