// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

import (
	"fmt"
	"strings"
)

// StockPeer relates a symbol to one of its peers. The relation is stored
// directionally; AAPL -> MSFT and MSFT -> AAPL are separate rows.
type StockPeer struct {
	Symbol      string   `json:"symbol" csv:"symbol" db:"symbol"`
	PeerSymbol  string   `json:"peerSymbol" csv:"peerSymbol" db:"peer_symbol"`
	CompanyName string   `json:"companyName" csv:"companyName" db:"company_name"`
	Price       *float64 `json:"price" csv:"price,omitempty" db:"price"`
	MarketCap   *float64 `json:"marketCap" csv:"marketCap,omitempty" db:"market_cap"`
}

func (peer *StockPeer) DataType() *DataType {
	return DataTypes[StockPeersKey]
}

func (peer *StockPeer) Validate() error {
	switch {
	case peer.Symbol == "":
		return missing(peer.DataType(), "symbol")
	case peer.PeerSymbol == "":
		return missing(peer.DataType(), "peer symbol")
	case strings.EqualFold(peer.Symbol, peer.PeerSymbol):
		return fmt.Errorf("%w: %s is listed as its own peer", ErrInvalidField, peer.Symbol)
	}

	return nil
}
