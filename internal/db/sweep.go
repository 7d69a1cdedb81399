package db

import "log"

// StartupSweep restores cold-start consistency: every player is marked
// disconnected (no sockets survive a restart) and games that never got
// an owning admin are purged with their questions, players and votes.
// It runs once at boot, before the server accepts connections.
func (s *Store) StartupSweep() error {
	result := s.conn.Model(&Player{}).
		Where("connected = ?", true).Update("connected", false)
	if result.Error != nil {
		return result.Error
	}
	log.Printf("startup sweep: disconnected players=%d", result.RowsAffected)

	var orphaned []string
	err := s.conn.Model(&Game{}).
		Where("admin_id IS NULL OR admin_id = ''").
		Pluck("id", &orphaned).Error
	if err != nil {
		return err
	}
	if len(orphaned) == 0 {
		return nil
	}
	if err := s.conn.Where("game_id IN ?", orphaned).Delete(&Vote{}).Error; err != nil {
		return err
	}
	if err := s.conn.Where("game_id IN ?", orphaned).Delete(&Player{}).Error; err != nil {
		return err
	}
	if err := s.conn.Where("game_id IN ?", orphaned).Delete(&Question{}).Error; err != nil {
		return err
	}
	if err := s.conn.Where("id IN ?", orphaned).Delete(&Game{}).Error; err != nil {
		return err
	}
	log.Printf("startup sweep: purged anonymous games=%d", len(orphaned))
	return nil
}
