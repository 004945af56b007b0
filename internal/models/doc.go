// Package models defines the core domain models for Diviso.
//
// # Entities
//
//   - User: registered account (profile, phone, subscription tier, credits)
//   - Group, GroupMember: a set of users sharing expenses, with roles and statuses
//   - Expense, ExpenseSplit: an amount paid by one member, shared among members
//   - BalanceNotification: per-(debtor, expense) record of an outstanding share
//   - Settlement: a recorded payment between two members
//   - Notification: generic per-user inbox entry with a loosely-typed payload
//   - Plan: trip/event planning entity, convertible into a Group
//   - Checkin, CreditPurchase, ReceiptScan: gamification, billing and OCR records
//
// # Conventions
//
//  1. IDs are UUID strings; relationships use IDs, never pointers.
//  2. Timestamps are Unix seconds. A zero ArchivedAt means "active".
//  3. Money is shopspring/decimal, never float64.
//  4. Nothing is hard-deleted: groups and members are archived.
package models
