// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	time integer not null,
	txID blob(32),
	origin blob(20),
	kind text not null,
	account blob(20),
	amount blob,
	data blob
);

create index if not exists eventTimeIndex on event(time);
create index if not exists eventAccountIndex on event(account);
create index if not exists eventKindIndex on event(kind);
`
