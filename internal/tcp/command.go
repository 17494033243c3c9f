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

package tcp

import "fmt"

// Command identifies the kind of a frame
type Command byte

const (
	HeartbeatRequest  Command = 0x01
	HeartbeatResponse Command = 0x02
	Ping              Command = 0x03
	Pong              Command = 0x04

	WriteEvents          Command = 0x82
	WriteEventsCompleted Command = 0x83

	TransactionStart           Command = 0x84
	TransactionStartCompleted  Command = 0x85
	TransactionWrite           Command = 0x86
	TransactionWriteCompleted  Command = 0x87
	TransactionCommit          Command = 0x88
	TransactionCommitCompleted Command = 0x89

	DeleteStream          Command = 0x8A
	DeleteStreamCompleted Command = 0x8B

	ReadEvent                           Command = 0xB0
	ReadEventCompleted                  Command = 0xB1
	ReadStreamEventsForward             Command = 0xB2
	ReadStreamEventsForwardCompleted    Command = 0xB3
	ReadStreamEventsBackward            Command = 0xB4
	ReadStreamEventsBackwardCompleted   Command = 0xB5
	ReadAllEventsForward                Command = 0xB6
	ReadAllEventsForwardCompleted       Command = 0xB7
	ReadAllEventsBackward               Command = 0xB8
	ReadAllEventsBackwardCompleted      Command = 0xB9
	SubscribeToStream                   Command = 0xC0
	SubscriptionConfirmation            Command = 0xC1
	StreamEventAppeared                 Command = 0xC2
	UnsubscribeFromStream               Command = 0xC3
	SubscriptionDropped                 Command = 0xC4
	ConnectToPersistentSubscription     Command = 0xC5
	PersistentSubscriptionConfirmation  Command = 0xC6
	PersistentSubscriptionEventAppeared Command = 0xC7
	CreatePersistentSubscription        Command = 0xC8
	CreatePersistentSubscriptionDone    Command = 0xC9
	DeletePersistentSubscription        Command = 0xCA
	DeletePersistentSubscriptionDone    Command = 0xCB
	PersistentSubscriptionAckEvents     Command = 0xCC
	PersistentSubscriptionNakEvents     Command = 0xCD
	UpdatePersistentSubscription        Command = 0xCE
	UpdatePersistentSubscriptionDone    Command = 0xCF

	ScavengeDatabase          Command = 0xD0
	ScavengeDatabaseCompleted Command = 0xD1

	BadRequest       Command = 0xF0
	NotHandled       Command = 0xF1
	Authenticate     Command = 0xF2
	Authenticated    Command = 0xF3
	NotAuthenticated Command = 0xF4
	IdentifyClient   Command = 0xF5
	ClientIdentified Command = 0xF6
)

var commandNames = map[Command]string{
	HeartbeatRequest:                    "HeartbeatRequestCommand",
	HeartbeatResponse:                   "HeartbeatResponseCommand",
	Ping:                                "Ping",
	Pong:                                "Pong",
	WriteEvents:                         "WriteEvents",
	WriteEventsCompleted:                "WriteEventsCompleted",
	TransactionStart:                    "TransactionStart",
	TransactionStartCompleted:           "TransactionStartCompleted",
	TransactionWrite:                    "TransactionWrite",
	TransactionWriteCompleted:           "TransactionWriteCompleted",
	TransactionCommit:                   "TransactionCommit",
	TransactionCommitCompleted:          "TransactionCommitCompleted",
	DeleteStream:                        "DeleteStream",
	DeleteStreamCompleted:               "DeleteStreamCompleted",
	ReadEvent:                           "ReadEvent",
	ReadEventCompleted:                  "ReadEventCompleted",
	ReadStreamEventsForward:             "ReadStreamEventsForward",
	ReadStreamEventsForwardCompleted:    "ReadStreamEventsForwardCompleted",
	ReadStreamEventsBackward:            "ReadStreamEventsBackward",
	ReadStreamEventsBackwardCompleted:   "ReadStreamEventsBackwardCompleted",
	ReadAllEventsForward:                "ReadAllEventsForward",
	ReadAllEventsForwardCompleted:       "ReadAllEventsForwardCompleted",
	ReadAllEventsBackward:               "ReadAllEventsBackward",
	ReadAllEventsBackwardCompleted:      "ReadAllEventsBackwardCompleted",
	SubscribeToStream:                   "SubscribeToStream",
	SubscriptionConfirmation:            "SubscriptionConfirmation",
	StreamEventAppeared:                 "StreamEventAppeared",
	UnsubscribeFromStream:               "UnsubscribeFromStream",
	SubscriptionDropped:                 "SubscriptionDropped",
	ConnectToPersistentSubscription:     "ConnectToPersistentSubscription",
	PersistentSubscriptionConfirmation:  "PersistentSubscriptionConfirmation",
	PersistentSubscriptionEventAppeared: "PersistentSubscriptionStreamEventAppeared",
	CreatePersistentSubscription:        "CreatePersistentSubscription",
	CreatePersistentSubscriptionDone:    "CreatePersistentSubscriptionCompleted",
	DeletePersistentSubscription:        "DeletePersistentSubscription",
	DeletePersistentSubscriptionDone:    "DeletePersistentSubscriptionCompleted",
	PersistentSubscriptionAckEvents:     "PersistentSubscriptionAckEvents",
	PersistentSubscriptionNakEvents:     "PersistentSubscriptionNakEvents",
	UpdatePersistentSubscription:        "UpdatePersistentSubscription",
	UpdatePersistentSubscriptionDone:    "UpdatePersistentSubscriptionCompleted",
	ScavengeDatabase:                    "ScavengeDatabase",
	ScavengeDatabaseCompleted:           "ScavengeDatabaseCompleted",
	BadRequest:                          "BadRequest",
	NotHandled:                          "NotHandled",
	Authenticate:                        "Authenticate",
	Authenticated:                       "Authenticated",
	NotAuthenticated:                    "NotAuthenticated",
	IdentifyClient:                      "IdentifyClient",
	ClientIdentified:                    "ClientIdentified",
}

// Known reports whether the command is part of the protocol
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// String returns the protocol name of the command
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}
