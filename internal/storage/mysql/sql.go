package mysql

const listCallableSQL = `
SELECT
  id,
  name,
  phone,
  beds,
  family_friendly,
  call_frequency,
  call_priority,
  last_called
FROM hosts
WHERE phone IS NOT NULL AND phone <> ''
ORDER BY id
`

const getHostSQL = `
SELECT
  id,
  name,
  phone,
  beds,
  family_friendly,
  call_frequency,
  call_priority,
  last_called
FROM hosts
WHERE id = ?
`

const touchLastCalledSQL = `
UPDATE hosts SET last_called = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

const updatePolicySQL = `
UPDATE hosts SET call_frequency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

// Pending = no assignment row and a stay window overlapping the horizon.
const listPendingSQL = `
SELECT
  g.id,
  g.name,
  g.phone,
  g.check_in,
  g.check_out,
  g.is_couple,
  a.id
FROM guests g
LEFT JOIN assignments a ON a.guest_id = g.id
WHERE a.id IS NULL
  AND g.check_in <= ?
  AND g.check_out >= ?
ORDER BY g.check_in, g.id
`

const insertSessionSQL = `
INSERT INTO call_sessions
  (id, phone, host_id, direction, menu_selection, status, beds_offered, accepts_couples, guests_assigned)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getSessionSQL = `
SELECT
  id,
  phone,
  host_id,
  direction,
  menu_selection,
  status,
  beds_offered,
  accepts_couples,
  guests_assigned,
  created_at,
  updated_at
FROM call_sessions
WHERE id = ?
`

// The status guard makes terminal states one-way even under racing writers:
// a transition against a completed row updates nothing.
const transitionSessionSQL = `
UPDATE call_sessions
SET
  menu_selection  = ?,
  status          = ?,
  beds_offered    = ?,
  accepts_couples = ?,
  guests_assigned = ?,
  updated_at      = CURRENT_TIMESTAMP
WHERE id = ?
  AND status NOT IN ('completed_assigned', 'completed_no_match', 'completed_no_pending', 'completed')
`

const sessionStatusSQL = `
SELECT status FROM call_sessions WHERE id = ?
`
