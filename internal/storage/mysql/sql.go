package mysql

const getUserByEmailSQL = `
SELECT id, email, password_hash, name, hostaway_user_id, listing_map_ids, created_at
FROM users
WHERE email = ?
`

const getUserByIDSQL = `
SELECT id, email, password_hash, name, hostaway_user_id, listing_map_ids, created_at
FROM users
WHERE id = ?
`

const upsertDeviceTokenSQL = `
INSERT INTO device_tokens (user_id, token, platform)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  user_id    = VALUES(user_id),
  platform   = VALUES(platform),
  updated_at = CURRENT_TIMESTAMP
`

// JSON_CONTAINS matches users whose listing_map_ids JSON array holds the id.
const usersForListingSQL = `
SELECT id, email, password_hash, name, hostaway_user_id, listing_map_ids, created_at
FROM users
WHERE JSON_CONTAINS(listing_map_ids, CAST(? AS JSON))
`

const deviceTokensForUsersPrefix = `
SELECT DISTINCT token
FROM device_tokens
WHERE user_id IN `

const partnershipForUserSQL = `
SELECT id, user_id, listing_map_id, period, amount_cents, currency
FROM partnership_earnings
WHERE user_id = ?
ORDER BY period DESC, listing_map_id
`

const insertReservationLogSQL = `
INSERT INTO reservation_log (reservation_id, listing_map_id, guest_name, check_in, check_out)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE received_at = CURRENT_TIMESTAMP
`
