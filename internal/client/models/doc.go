// Package models defines the client-side data types of the panelkeeper
// client: cloud credentials, panel directory entries, session tokens,
// panel status snapshots, remembered user codes and the recipe/timer
// payloads returned by the backend API.
package models
